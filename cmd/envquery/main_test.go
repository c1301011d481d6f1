package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammed-shakir/seaenv/internal/core/config"
	"github.com/mohammed-shakir/seaenv/internal/core/model"
	"github.com/mohammed-shakir/seaenv/internal/manager"
)

func TestParsePoint(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
		depth   float64
	}{
		{"43.1,9.5", false, 0},
		{" 43.1, 9.5 , 120 ", false, 120},
		{"43.1", true, 0},
		{"91,0", true, 0},
		{"a,b", true, 0},
		{"1,2,3,4", true, 0},
	}
	for _, c := range cases {
		p, err := parsePoint(c.in)
		if (err != nil) != c.wantErr {
			t.Fatalf("parsePoint(%q) err=%v", c.in, err)
		}
		if err == nil && p.Depth != c.depth {
			t.Fatalf("parsePoint(%q)=%v", c.in, p)
		}
	}
	if ps, err := parsePoints("1,2;3,4,5;"); err != nil || len(ps) != 2 {
		t.Fatalf("parsePoints=%v err=%v", ps, err)
	}
	if _, err := parsePoints(" ; "); err == nil {
		t.Fatalf("empty point list must fail")
	}
}

func TestAnswer_OverridesOnly(t *testing.T) {
	m := manager.New()
	c := cfg{
		Query:    "sediment",
		Tx:       "43,9",
		Rx:       "43.1,9.1,50;43.2,9.2,70",
		Sediment: "sand|1650|110|1.9|0.8|2.5",
	}
	if err := importOverrides(m, c); err != nil {
		t.Fatalf("importOverrides: %v", err)
	}
	out, err := answer(context.Background(), m, c)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	s, ok := out.(result).Value.(model.Sediment)
	if !ok || s.Type != "sand" || s.Depth != 60 {
		t.Fatalf("value=%#v", out)
	}

	c.Query = "ssp"
	if _, err := answer(context.Background(), m, c); !errors.Is(err, errNotFound) {
		t.Fatalf("ssp without data err=%v", err)
	}
	c.Query = "tide"
	if _, err := answer(context.Background(), m, c); err == nil {
		t.Fatalf("unknown query must fail")
	}
}

func TestOpen_LoadsConfiguredDatabases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gebco.csv")
	if err := os.WriteFile(path, []byte("lat,lon,elevation\n43,9,-1500\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	env := config.Config{
		Data:    config.DataCfg{GEBCO: path, GEBCORes: 7, MaxRing: 1},
		Results: config.ResultsCfg{Backend: "lru", LRUSize: 8},
	}
	m, err := open(context.Background(), env, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = m.Close() }()

	c := cfg{Query: "bathymetry", Tx: "43,9", Rx: "43,9"}
	out, err := answer(context.Background(), m, c)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if d := out.(result).Value.(float64); d != 1500 {
		t.Fatalf("depth=%v want 1500", d)
	}

	env.Results.Backend = "memcached"
	if _, err := open(context.Background(), env, nil); err == nil {
		t.Fatalf("unknown results backend must fail")
	}
}
