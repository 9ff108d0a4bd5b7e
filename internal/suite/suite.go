// Package suite loads API test suites and runs them against a live API.
package suite

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/apijudge/internal/config"
	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
	"github.com/at-ishikawa/apijudge/internal/report"
)

type Suite struct {
	Name    string            `yaml:"name" validate:"required"`
	BaseURL string            `yaml:"base_url" validate:"required,url"`
	Headers map[string]string `yaml:"headers"`
	Cases   []Case            `yaml:"cases" validate:"required,min=1,unique=Name,dive"`
}

type Case struct {
	Name     string            `yaml:"name" validate:"required"`
	Method   string            `yaml:"method" validate:"oneof=GET POST PUT PATCH DELETE"`
	Endpoint string            `yaml:"endpoint" validate:"required"`
	Headers  map[string]string `yaml:"headers"`
	Payload  jsonvalue.Value   `yaml:"payload"`
	// ExpectStatus is the required status code. Zero accepts any 2xx.
	ExpectStatus   int             `yaml:"expect_status" validate:"omitempty,min=100,max=599"`
	ExpectedFields []string        `yaml:"expected_fields" validate:"dive,required"`
	Context        string          `yaml:"context"`
	Metadata       report.Metadata `yaml:"metadata"`
}

// NeedsValidation reports whether the case asks for a semantic verdict.
func (c Case) NeedsValidation() bool {
	return len(c.ExpectedFields) > 0 || strings.TrimSpace(c.Context) != ""
}

func Load(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Suite{}, fmt.Errorf("Parse(%s) > %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("yaml.Unmarshal > %w", err)
	}
	for i := range s.Cases {
		s.Cases[i].Method = strings.ToUpper(strings.TrimSpace(s.Cases[i].Method))
		if s.Cases[i].Method == "" {
			s.Cases[i].Method = "GET"
		}
	}
	validate, trans, err := config.NewValidator("yaml")
	if err != nil {
		return Suite{}, fmt.Errorf("config.NewValidator() > %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return Suite{}, fmt.Errorf("invalid suite: %s", strings.Join(config.TranslateErrors(err, trans, true), ", "))
	}
	return s, nil
}

// Scenario is one of the testing angles recorded against every case.
type Scenario struct {
	Name string
	Type string
}

// Scenarios returns the scenarios covered for a request method.
func Scenarios(method string) []Scenario {
	return []Scenario{
		{Name: "Valid Request", Type: "positive"},
		{Name: "Invalid Auth", Type: "negative"},
		{Name: "Boundary Values", Type: "edge_case"},
		{Name: "SQL Injection", Type: "security"},
		{Name: "XSS Attack", Type: "security"},
	}
}

func scenarioNames(method string) []string {
	scenarios := Scenarios(method)
	names := make([]string, 0, len(scenarios))
	for _, scenario := range scenarios {
		names = append(names, scenario.Name)
	}
	return names
}
