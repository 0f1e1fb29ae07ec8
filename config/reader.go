package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"reflect"
	"sort"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/autosteer/logging"
)

// Read reads a config from the given file. Environment variables in the file are expanded.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var attrs AttributeMap
	if err := json.NewDecoder(r).Decode(&attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	cfg, err := FromAttributes(attrs, logger)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = originalPath
	return cfg, nil
}

// FromAttributes layers attrs over the defaults and validates the result. Keys that match no
// setting are logged and otherwise ignored.
func FromAttributes(attrs AttributeMap, logger logging.Logger) (*Config, error) {
	cfg := Default()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &cfg,
		Metadata:   &md,
		DecodeHook: levelHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attrs)); err != nil {
		return nil, errors.Wrap(err, "error decoding config attributes")
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		logger.Warnw("ignoring unknown config keys", "keys", md.Unused)
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var levelType = reflect.TypeOf(logging.INFO)

// levelHook parses log level names.
func levelHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != levelType || from.Kind() != reflect.String {
		return data, nil
	}
	return logging.LevelFromString(data.(string))
}
