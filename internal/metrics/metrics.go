// Package metrics owns the Prometheus registry the server exposes on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/geomap-sync/internal/core/observability"
)

type BuildInfo struct {
	Version   string
	Revision  string
	Dirty     bool
	BuildDate string
}

// CurrentBuild reads VCS stamping from the running binary.
func CurrentBuild() BuildInfo {
	b := BuildInfo{
		Version:  versioninfo.Short(),
		Revision: versioninfo.Revision,
		Dirty:    versioninfo.DirtyBuild,
	}
	if !versioninfo.LastCommit.IsZero() {
		b.BuildDate = versioninfo.LastCommit.UTC().Format(time.RFC3339)
	}
	return b
}

type Config struct {
	Enabled bool
	Build   BuildInfo
}

type Provider struct {
	reg       *prometheus.Registry
	buildInfo *prometheus.GaugeVec
}

// Init creates a fresh registry with runtime collectors, build info and the
// service collectors from observability.
func Init(cfg Config) (*Provider, error) {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geomap_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "dirty", "build_date"},
	)
	reg.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	dirty := "false"
	if v.Dirty {
		dirty = "true"
	}
	build.WithLabelValues(v.Version, v.Revision, dirty, v.BuildDate).Set(1)

	if err := observability.Init(reg); err != nil {
		return nil, err
	}
	return &Provider{reg: reg, buildInfo: build}, nil
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }
