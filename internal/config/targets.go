package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

type targetsFile struct {
	Targets []targetEntry `yaml:"targets"`
}

type targetEntry struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// DefaultTargets is the built-in list used when no targets file is set.
func DefaultTargets() []domain.Target {
	return []domain.Target{
		{ID: "url-aimhub-lighthouses", Kind: domain.KindHTTP, Name: "AIMHub Lighthouses", Address: "https://aimhublighthouses.uoeld.ac.ke"},
		{ID: "url-aimhub-api", Kind: domain.KindHTTP, Name: "AIMHub API", Address: "https://aimhub-api.duckdns.org/"},
		{ID: "url-flycation-ke", Kind: domain.KindHTTP, Name: "Flycation KE", Address: "https://flycationke.duckdns.org/"},
		{ID: "url-flycation-ke-api", Kind: domain.KindHTTP, Name: "Flycation KE API", Address: "https://flycationke-api.duckdns.org/"},
		{ID: "url-pathle-consultants", Kind: domain.KindHTTP, Name: "Pathle Consultants", Address: "https://pathleconsultants.duckdns.org/"},
		{ID: "url-bikexify-app", Kind: domain.KindHTTP, Name: "Bikexify App", Address: "https://app.bikexify.co.ke"},
		{ID: "url-bikexify-api", Kind: domain.KindHTTP, Name: "Bikexify API", Address: "https://api.bikexify.co.ke"},
		{ID: "url-bikexify", Kind: domain.KindHTTP, Name: "Bikexify", Address: "https://bikexify.co.ke"},
		{ID: "tcp-server-193-181-211-219", Kind: domain.KindTCP, Name: "Server 193.181.211.219", Address: "193.181.211.219:22"},
		{ID: "tcp-server-41-89-169-160", Kind: domain.KindTCP, Name: "Server 41.89.169.160", Address: "41.89.169.160:9160"},
	}
}

// LoadTargets reads the yaml targets file, or returns DefaultTargets when
// path is empty.
func LoadTargets(path string) ([]domain.Target, error) {
	if path == "" {
		return DefaultTargets(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	return ParseTargets(data)
}

func ParseTargets(data []byte) ([]domain.Target, error) {
	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	out := make([]domain.Target, 0, len(f.Targets))
	for i, e := range f.Targets {
		kind, err := ParseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("target %d (%s): %w", i, e.Name, err)
		}
		out = append(out, domain.Target{
			ID:      domain.TargetID(strings.TrimSpace(e.ID)),
			Kind:    kind,
			Name:    strings.TrimSpace(e.Name),
			Address: strings.TrimSpace(e.Address),
		})
	}
	return out, nil
}

// LoadRegistry loads the targets and validates them into a registry.
func LoadRegistry(path string) (*domain.Registry, error) {
	targets, err := LoadTargets(path)
	if err != nil {
		return nil, err
	}
	return domain.NewRegistry(targets)
}

// ParseKind accepts the canonical kinds and the aliases used by older
// target lists (url, website, server).
func ParseKind(s string) (domain.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http", "https", "url", "website":
		return domain.KindHTTP, nil
	case "tcp", "server":
		return domain.KindTCP, nil
	case "icmp", "ping":
		return domain.KindICMP, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}
