package backend

import (
	"errors"
	"fmt"

	"appsales/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	sinkTypes := make([]SinkType, 0, len(appConfig.Sinks))
	for _, s := range appConfig.Sinks {
		st := SinkType(s)
		if !st.IsValid() {
			return Config{}, fmt.Errorf("invalid sink type in config: %s", s)
		}
		sinkTypes = append(sinkTypes, st)
	}

	return Config{
		Sinks: sinkTypes,

		OutputDir:       appConfig.OutputDir,
		SummaryFileName: appConfig.SummaryFileName,
		SQLiteDBPath:    appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the sink configuration
func (c Config) Validate() error {
	if c.DryRun {
		return nil
	}
	if len(c.Sinks) == 0 {
		return errors.New("at least one sink is required")
	}

	for _, st := range c.Sinks {
		switch st {
		case FileSink:
			if c.OutputDir == "" {
				return errors.New("output directory is required for file sink")
			}
		case SQLiteSink:
			if c.SQLiteDBPath == "" {
				return errors.New("SQLite database path is required for sqlite sink")
			}
		case SheetsSink:
			if c.GoogleSpreadsheetID == "" {
				return errors.New("Google Spreadsheet ID is required for sheets sink")
			}
			if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
				return errors.New("service account credentials are required for sheets sink")
			}
		default:
			return fmt.Errorf("invalid sink type: %s", st)
		}
	}

	return nil
}
