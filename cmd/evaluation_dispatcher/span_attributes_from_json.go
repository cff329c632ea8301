package main

import (
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Contact flow parameters and contact attributes are flat string maps, but
// flows often stash JSON documents in them. Objects get expanded into one
// attribute per field.
func setSpanAttributesFromStringMap(span trace.Span, keyPrefix string, values map[string]string) {
	for key, value := range values {
		fullKey := keyPrefix + "." + key
		var decoded interface{}
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			if _, isObject := decoded.(map[string]interface{}); isObject {
				setSpanAttributesFromJSON(span, fullKey, decoded)
				continue
			}
		}
		setSpanAttributesFromJSON(span, fullKey, value)
	}
}

func setSpanAttributesFromJSON(span trace.Span, keyPrefix string, jsonObj interface{}) {
	switch jsonObj := jsonObj.(type) {
	case map[string]interface{}:
		for key, val := range jsonObj {
			if val != nil {
				fullKey := key
				if keyPrefix != "" {
					fullKey = keyPrefix + "." + key
				}
				setSpanAttributesFromJSON(span, fullKey, val)
			}
		}
	case string:
		span.SetAttributes(attribute.String(keyPrefix, jsonObj))
		if t, err := time.Parse(time.RFC3339Nano, jsonObj); err == nil {
			span.SetAttributes(attribute.Int64(keyPrefix+"_unix", t.Unix()))
		}
	case float64:
		span.SetAttributes(attribute.Float64(keyPrefix, jsonObj))
	case bool:
		span.SetAttributes(attribute.Bool(keyPrefix, jsonObj))
	default:
		fmt.Println("Unhandled type:", keyPrefix, jsonObj)
	}
}
