package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://campfire.ai/schemas/"

// Validator checks client messages against the embedded wire schemas.
type Validator struct {
	hello *jsonschema.Schema
	act   *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range []string{"hello.schema.json", "act.schema.json"} {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBaseURL+name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	hello, err := c.Compile(schemaBaseURL + "hello.schema.json")
	if err != nil {
		return nil, err
	}
	act, err := c.Compile(schemaBaseURL + "act.schema.json")
	if err != nil {
		return nil, err
	}
	return &Validator{hello: hello, act: act}, nil
}

func (v *Validator) Hello(raw []byte) (HelloMsg, error) {
	var m HelloMsg
	if err := validate(v.hello, raw); err != nil {
		return m, err
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}

func (v *Validator) Act(raw []byte) (ActMsg, error) {
	var m ActMsg
	if err := validate(v.act, raw); err != nil {
		return m, err
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
