// Package metrics owns the Prometheus registry of a run and writes it out
// in the node-exporter textfile format when the run ends.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mohammed-shakir/seaenv/internal/core/observability"
)

type BuildInfo struct {
	Version string
}

type Config struct {
	Enabled  bool
	Textfile string
	Build    BuildInfo
}

type Provider struct {
	reg      *prometheus.Registry
	textfile string
}

// Init builds a registry with the Go and process collectors plus the query
// layer collectors from observability.
func Init(cfg Config) (*Provider, error) {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := observability.Init(reg); err != nil {
		return nil, fmt.Errorf("register observability collectors: %w", err)
	}
	observability.ExposeBuildInfo(cfg.Build.Version)

	return &Provider{reg: reg, textfile: cfg.Textfile}, nil
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

func (p *Provider) Gatherer() prometheus.Gatherer { return p.reg }

// WriteTextfile writes every gathered metric to the configured path. The
// file is replaced atomically.
func (p *Provider) WriteTextfile() error {
	if p.textfile == "" {
		return errors.New("metrics textfile path is not set")
	}
	if err := prometheus.WriteToTextfile(p.textfile, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", p.textfile, err)
	}
	return nil
}
