package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logPath expands environment variables in dir, creates dir if needed and
// returns the path of name inside it. The file itself is created on first
// write by the rotating logger.
func logPath(dir, name string) (string, error) {
	dir = os.ExpandEnv(dir)
	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", fmt.Errorf("log directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

// setupViper reads the configuration file named by the config option or,
// when that is empty, the first config.yaml found in /etc/rhkstm,
// $HOME/.rhkstm or the working directory. Having no config file is fine.
func setupViper(cfg *viper.Viper) error {
	cfg.SetEnvPrefix("RHKSTM")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}

	cfg.SetConfigName("config")
	cfg.SetConfigType("yaml")
	cfg.AddConfigPath(filepath.FromSlash("/etc/rhkstm"))
	if home, err := os.UserHomeDir(); err == nil {
		cfg.AddConfigPath(filepath.Join(home, ".rhkstm"))
	}
	cfg.AddConfigPath(".")
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// startLogger returns a logger writing to pfname, rotated by size.
func startLogger(pfname string) *log.Logger {
	return log.New(&lumberjack.Logger{
		Filename:   pfname,
		MaxSize:    10,   // megabytes after which new file is created
		MaxBackups: 4,    // number of backups
		MaxAge:     180,  // days
		Compress:   true, // whether to gzip the backups
	}, "", log.LstdFlags)
}
