package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "BUDGETWATCH_"

type Application struct {
	Addr     string   `koanf:"addr"`
	Storage  Storage  `koanf:"storage"`
	SQLite   SQLite   `koanf:"sqlite"`
	Database Database `koanf:"db"`
	Reminder Reminder `koanf:"reminder"`
	SMTP     SMTP     `koanf:"smtp"`
}

// Storage selects the persistence backend: json, xlsx, sqlite or postgres.
type Storage struct {
	Backend  string `koanf:"backend"`
	Dir      string `koanf:"dir"`
	Workbook string `koanf:"workbook"`
}

type SQLite struct {
	Path string `koanf:"path"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Reminder struct {
	Enabled   bool   `koanf:"enabled"`
	Schedule  string `koanf:"schedule"`
	Recipient string `koanf:"recipient"`
}

type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

func Defaults() Application {
	return Application{
		Addr: ":8181",
		Storage: Storage{
			Backend:  "json",
			Dir:      "data",
			Workbook: "expenses.xlsx",
		},
		SQLite: SQLite{
			Path: "data/budgetwatch.db",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "budgetwatch",
			Pass:   "",
			Name:   "budgetwatch",
			Schema: "public",
		},
		Reminder: Reminder{
			Enabled:  false,
			Schedule: "0 9 * * 1",
		},
		SMTP: SMTP{
			Host: "localhost",
			Port: 587,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			// BUDGETWATCH_STORAGE_BACKEND -> storage.backend
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
