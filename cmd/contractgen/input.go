package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/templates"
)

func readAll(cmd *cobra.Command, path string) ([]byte, error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readFormData decodes a form data object. YAML is used for .yaml/.yml files,
// JSON otherwise (including stdin).
func readFormData(cmd *cobra.Command, path string) (model.FormData, error) {
	data, err := readAll(cmd, path)
	if err != nil {
		return nil, err
	}
	if templates.FormatFromPath(path) == templates.FormatYAML {
		out := model.FormData{}
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return out, nil
	}
	out, err := model.DecodeFormData(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// readSubmission decodes a {contract_type, form_data} document.
func readSubmission(cmd *cobra.Command, path string) (model.FormSubmission, error) {
	data, err := readAll(cmd, path)
	if err != nil {
		return model.FormSubmission{}, err
	}
	if templates.FormatFromPath(path) == templates.FormatYAML {
		var out model.FormSubmission
		if err := yaml.Unmarshal(data, &out); err != nil {
			return model.FormSubmission{}, fmt.Errorf("decode %s: %w", path, err)
		}
		if out.FormData == nil {
			out.FormData = model.FormData{}
		}
		return out, nil
	}
	out, err := model.DecodeSubmission(data)
	if err != nil {
		return model.FormSubmission{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}
