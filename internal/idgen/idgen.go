// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the id namespaces devsim hands out.
const (
	// NodePrefix marks nodes created in the editor that have no database id yet.
	NodePrefix = "new-"
	// ConversationPrefix marks chat conversation ids.
	ConversationPrefix = "conv_"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// NodeID returns a fresh editor-side node id.
func NodeID() (string, error) {
	return GenerateWithPrefix(NodePrefix)
}

// ConversationID returns a fresh chat conversation id.
func ConversationID() (string, error) {
	return GenerateWithPrefix(ConversationPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// IsNodeID reports whether id was produced by NodeID.
func IsNodeID(id string) bool {
	return strings.HasPrefix(id, NodePrefix) && len(id) == len(NodePrefix)+Length
}
