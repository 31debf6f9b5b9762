package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/business-rules-service/pkg/cloudevents"
)

// EventTypeExtension marks a component schema as the payload of an event type
const EventTypeExtension = "x-event-type"

// EventValidator validates CloudEvent payloads against AsyncAPI schemas.
type EventValidator struct {
	schemas    map[string]*jsonschema.Schema
	rawSchemas map[string]map[string]any
}

// Spec is the part of an AsyncAPI document the validator reads.
type Spec struct {
	AsyncAPI   string             `yaml:"asyncapi"`
	Info       Info               `yaml:"info"`
	Channels   map[string]Channel `yaml:"channels"`
	Components Components         `yaml:"components"`
}

// Info contains the AsyncAPI info section.
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Channel is an AsyncAPI channel.
type Channel struct {
	Address  string         `yaml:"address"`
	Messages map[string]any `yaml:"messages"`
}

// Components contains reusable schemas and messages.
type Components struct {
	Schemas  map[string]map[string]any `yaml:"schemas"`
	Messages map[string]any            `yaml:"messages"`
}

// NewEventValidator loads an AsyncAPI document from a file.
func NewEventValidator(asyncAPIPath string) (*EventValidator, error) {
	data, err := os.ReadFile(asyncAPIPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read AsyncAPI spec: %w", err)
	}
	return NewEventValidatorFromBytes(data)
}

// NewEventValidatorFromBytes compiles every component schema that carries an
// x-event-type extension.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec Spec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	v := &EventValidator{
		schemas:    make(map[string]*jsonschema.Schema),
		rawSchemas: make(map[string]map[string]any),
	}

	compiler := jsonschema.NewCompiler()
	for name, schema := range spec.Components.Schemas {
		eventType, _ := schema[EventTypeExtension].(string)
		if eventType == "" {
			continue
		}

		compiled, err := compile(compiler, name, schema)
		if err != nil {
			return nil, err
		}
		if _, dup := v.schemas[eventType]; dup {
			return nil, fmt.Errorf("event type %s declared by more than one schema", eventType)
		}

		v.schemas[eventType] = compiled
		v.rawSchemas[eventType] = schema
	}

	return v, nil
}

func compile(compiler *jsonschema.Compiler, name string, schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema %s: %w", name, err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %w", name, err)
	}

	uri := "asyncapi://schemas/" + name
	if err := compiler.AddResource(uri, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}

	compiled, err := compiler.Compile(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// ValidateData validates an event payload against the schema of eventType.
func (v *EventValidator) ValidateData(eventType string, data any) error {
	schema, ok := v.schemas[eventType]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", eventType)
	}
	if data == nil {
		return fmt.Errorf("event data is required")
	}

	// round-trip so structs become the generic values the schema expects
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", eventType, err)
	}
	return nil
}

// ValidateEvent checks the CloudEvents envelope and validates the payload.
func (v *EventValidator) ValidateEvent(event *cloudevents.WMSCloudEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	switch {
	case event.Type == "":
		return fmt.Errorf("event type is required")
	case event.ID == "":
		return fmt.Errorf("event id is required")
	case event.Source == "":
		return fmt.Errorf("event source is required")
	case event.SpecVersion != cloudevents.SpecVersion:
		return fmt.Errorf("unsupported specversion %q", event.SpecVersion)
	}
	return v.ValidateData(event.Type, event.Data)
}

// ValidateEventJSON validates a structured-mode CloudEvent.
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event cloudevents.WMSCloudEvent
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	return v.ValidateEvent(&event)
}

// SupportedEventTypes returns the event types with a schema, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

// HasSchema reports whether eventType has a schema.
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}

// Schema returns the raw schema for eventType.
func (v *EventValidator) Schema(eventType string) (map[string]any, bool) {
	schema, ok := v.rawSchemas[eventType]
	return schema, ok
}
