// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package remote

import (
	"encoding/json"

	"github.com/juju/errors"
)

// JSONSerializer is the default wire format.
type JSONSerializer struct{}

// ContentType implements Serializer.
func (JSONSerializer) ContentType() string {
	return "application/json"
}

// Serialize implements Serializer.
func (JSONSerializer) Serialize(params map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(params)
	return data, errors.Trace(err)
}

// Deserialize implements Serializer.
func (JSONSerializer) Deserialize(data []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Trace(err)
	}
	return out, nil
}
