// Package config loads game settings from a yaml file, falling back to
// defaults when the file is absent.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Window struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"window"`

	World struct {
		Seed         int64  `yaml:"seed"`
		DBPath       string `yaml:"db_path"`
		RenderRadius int    `yaml:"render_radius"`
	} `yaml:"world"`

	// Budgets bound how much streaming work a single frame may start.
	Budgets struct {
		LoadsPerFrame   int `yaml:"loads_per_frame"`
		UnloadsPerFrame int `yaml:"unloads_per_frame"`
		MeshesPerFrame  int `yaml:"meshes_per_frame"`
		Workers         int `yaml:"workers"`
	} `yaml:"budgets"`

	TexturePath string `yaml:"texture_path"`
}

func Default() Config {
	var c Config
	c.Window.Width = 800
	c.Window.Height = 600
	c.World.Seed = 19930928
	c.World.DBPath = "cubeland.db"
	c.World.RenderRadius = 10
	c.Budgets.LoadsPerFrame = 8
	c.Budgets.UnloadsPerFrame = 4
	c.Budgets.MeshesPerFrame = 6
	c.Budgets.Workers = 4
	c.TexturePath = "texture.png"
	return c
}

// Load reads path over the defaults. A missing file is not an error;
// a malformed one is.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, "parse config")
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.World.RenderRadius < 1 {
		return errors.New("render_radius must be at least 1")
	}
	if c.Budgets.LoadsPerFrame < 1 || c.Budgets.MeshesPerFrame < 1 {
		return errors.New("per-frame budgets must be at least 1")
	}
	if c.Budgets.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	return nil
}
