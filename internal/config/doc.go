// Package config loads ango project configuration.
//
// The configuration lives in ango.json or ango.yaml at the project root.
// Fields that are absent keep their defaults.
//
//	{
//	  "name": "demo",
//	  "render": {
//	    "poolSize": 8,
//	    "maxUpdateCount": 100,
//	    "unitless": ["opacity", "zIndex"]
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"namespace": "ango"},
//	  "inspect": {"addr": "localhost:7070"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if errors.Is(err, fs.ErrNotExist) {
//	    cfg = config.New()
//	}
//	r := render.New(host, cfg.RenderOptions()...)
package config
