package config

import (
	"github.com/spf13/viper"
)

// Config is assembled from viper keys in Load; the structs carry no
// unmarshal tags.
type Config struct {
	App      App
	Server   Server
	Storage  Storage
	Pipeline Pipeline
}

type App struct {
	Environment string
}

type Server struct {
	HttpPort  string
	Workers   int
	QueueSize int
}

type Storage struct {
	Dir string
}

type Pipeline struct {
	ChunkSeconds int
	Workers      int
	FFmpegPath   string
	WhisperPath  string
	ModelPath    string
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("app.environment", "develop")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.workers", 4)
	viper.SetDefault("server.queue_size", 64)
	viper.SetDefault("storage.dir", "storage")
	viper.SetDefault("pipeline.chunk_seconds", 30)
	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	viper.SetDefault("pipeline.whisper_path", "whisper-cli")
	viper.SetDefault("pipeline.model_path", "models/ggml-base.bin")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
		},
		Server: Server{
			HttpPort:  viper.GetString("server.port"),
			Workers:   viper.GetInt("server.workers"),
			QueueSize: viper.GetInt("server.queue_size"),
		},
		Storage: Storage{
			Dir: viper.GetString("storage.dir"),
		},
		Pipeline: Pipeline{
			ChunkSeconds: viper.GetInt("pipeline.chunk_seconds"),
			Workers:      viper.GetInt("pipeline.workers"),
			FFmpegPath:   viper.GetString("pipeline.ffmpeg_path"),
			WhisperPath:  viper.GetString("pipeline.whisper_path"),
			ModelPath:    viper.GetString("pipeline.model_path"),
		},
	}, nil
}
