// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/trim21/errgo"

	"tome/internal/bencode"
)

// Size is a byte count written as a human size ("256KiB", "4MiB") or a plain integer.
type Size int64

func (s *Size) UnmarshalText(text []byte) error {
	n, err := units.RAMInBytes(string(text))
	if err != nil {
		return err
	}

	*s = Size(n)

	return nil
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(units.BytesSize(float64(s))), nil
}

type Decode struct {
	MaxDepth        int  `toml:"max-depth" validate:"gte=1"`
	Strict          bool `toml:"strict"`
	MaxStringLength Size `toml:"max-string-length" validate:"gte=0"`
}

type Create struct {
	CreatedBy     string `toml:"created-by"`
	PieceLength   Size   `toml:"piece-length" validate:"gte=16384,lte=268435456"`
	Workers       int    `toml:"workers" validate:"gte=0,lte=256"`
	ReadRateLimit Size   `toml:"read-rate-limit" validate:"gte=0"`
	Private       bool   `toml:"private"`
}

type Log struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error"`
	JSON  bool   `toml:"json"`
}

type Config struct {
	Log    Log    `toml:"log"`
	Create Create `toml:"create"`
	Decode Decode `toml:"decode"`
}

func Default() Config {
	return Config{
		Decode: Decode{MaxDepth: bencode.DefaultMaxDepth},
		Create: Create{PieceLength: 256 * units.KiB},
		Log:    Log{Level: "error"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFromFile reads path on top of Default. A missing file is not an error.
func LoadFromFile(path string) (Config, error) {
	var cfg = Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return Config{}, errgo.Wrap(err, "failed to read config file")
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errgo.Wrap(err, "failed to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errgo.Wrap(err, "invalid config")
	}

	if c.Create.PieceLength&(c.Create.PieceLength-1) != 0 {
		return fmt.Errorf("invalid config: piece-length %d is not a power of 2", c.Create.PieceLength)
	}

	return nil
}

// DecodeOptions converts the [decode] section into decoder options.
func (c Config) DecodeOptions() []bencode.DecodeOption {
	opts := []bencode.DecodeOption{
		bencode.WithMaxDepth(c.Decode.MaxDepth),
		bencode.WithStrict(c.Decode.Strict),
	}

	if c.Decode.MaxStringLength > 0 {
		opts = append(opts, bencode.WithMaxStringLength(int64(c.Decode.MaxStringLength)))
	}

	return opts
}
