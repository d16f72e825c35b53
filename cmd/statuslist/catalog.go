package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pilacorp/go-statuslist-sdk/credential/common/statuslist"
)

// catalogFile is the YAML layout of a status message catalog:
//
//	messages:
//	  - status: "0x0"
//	    message: pending_review
type catalogFile struct {
	Messages []statuslist.StatusMessage `yaml:"messages"`
}

func loadCatalog(path string) ([]statuslist.StatusMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(catalog.Messages) == 0 {
		return nil, fmt.Errorf("catalog %s has no messages", path)
	}
	for i, m := range catalog.Messages {
		if _, err := statuslist.ParseStatusIdentifier(m.Status); err != nil {
			return nil, fmt.Errorf("catalog %s entry %d: %w", path, i, err)
		}
	}
	return catalog.Messages, nil
}
