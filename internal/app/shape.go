package app

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ShapeError describes where an import payload departs from the document shape.
type ShapeError struct {
	Path    string
	Message string
}

// Error renders the shape failure.
func (e ShapeError) Error() string {
	path := strings.TrimSpace(e.Path)
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

type kind int

const (
	kindAny kind = iota
	kindObject
	kindArray
	kindString
	kindInteger
	kindBoolean
)

var kindNames = map[kind]string{
	kindObject:  "object",
	kindArray:   "array",
	kindString:  "string",
	kindInteger: "integer",
	kindBoolean: "boolean",
}

// shapeNode is one node of the expected payload layout. Unknown object keys are allowed.
type shapeNode struct {
	kind       kind
	required   []string
	properties map[string]*shapeNode
	items      *shapeNode
	nullable   bool
}

func object(required []string, props map[string]*shapeNode) *shapeNode {
	return &shapeNode{kind: kindObject, required: required, properties: props}
}

func arrayOf(items *shapeNode) *shapeNode {
	return &shapeNode{kind: kindArray, items: items, nullable: true}
}

func scalar(k kind) *shapeNode {
	return &shapeNode{kind: k}
}

func itemProps(extra map[string]*shapeNode) map[string]*shapeNode {
	props := map[string]*shapeNode{
		"id":         scalar(kindString),
		"title":      scalar(kindString),
		"completed":  scalar(kindBoolean),
		"orderIndex": scalar(kindInteger),
		"priority":   scalar(kindInteger),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// documentShape is the interchange layout accepted by Import.
var documentShape = func() *shapeNode {
	itemRequired := []string{"id", "title"}
	initiative := object(itemRequired, itemProps(map[string]*shapeNode{
		"taskId":        scalar(kindString),
		"assignee":      scalar(kindString),
		"priorityLevel": scalar(kindString),
		"meta": object(nil, map[string]*shapeNode{
			"tags":          arrayOf(scalar(kindString)),
			"closenessMin":  scalar(kindInteger),
			"estEffortMins": scalar(kindInteger),
			"needs":         arrayOf(scalar(kindString)),
		}),
	}))
	task := object(itemRequired, itemProps(map[string]*shapeNode{
		"stepId":      scalar(kindString),
		"progress":    scalar(kindString),
		"initiatives": arrayOf(initiative),
	}))
	step := object(itemRequired, itemProps(map[string]*shapeNode{
		"goalId": scalar(kindString),
		"status": scalar(kindString),
		"tasks":  arrayOf(task),
	}))
	goal := object(itemRequired, itemProps(map[string]*shapeNode{
		"startDate":      scalar(kindString),
		"endDate":        scalar(kindString),
		"nextReportDate": scalar(kindString),
		"amount":         scalar(kindString),
		"steps":          arrayOf(step),
	}))
	headers := object(nil, map[string]*shapeNode{
		"goals":       scalar(kindString),
		"steps":       scalar(kindString),
		"tasks":       scalar(kindString),
		"initiatives": scalar(kindString),
	})
	return object([]string{"goals"}, map[string]*shapeNode{
		"columnHeaders": headers,
		"goals":         arrayOf(goal),
	})
}()

// validate checks raw JSON against the node.
func (n *shapeNode) validate(raw []byte) error {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ShapeError{Path: "$", Message: fmt.Sprintf("invalid JSON payload: %v", err)}
	}
	return n.check(decoded, "$")
}

func (n *shapeNode) check(value any, path string) error {
	if n == nil || n.kind == kindAny {
		return nil
	}
	if value == nil && n.nullable {
		return nil
	}
	switch n.kind {
	case kindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return n.mismatch(path)
		}
		for _, key := range n.required {
			if _, exists := obj[key]; !exists {
				return ShapeError{Path: path, Message: fmt.Sprintf("missing required field %q", key)}
			}
		}
		for key, child := range obj {
			if err := n.properties[key].check(child, path+"."+key); err != nil {
				return err
			}
		}
	case kindArray:
		items, ok := value.([]any)
		if !ok {
			return n.mismatch(path)
		}
		for i, item := range items {
			if err := n.items.check(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case kindString:
		if _, ok := value.(string); !ok {
			return n.mismatch(path)
		}
	case kindInteger:
		number, ok := value.(float64)
		if !ok || number != float64(int64(number)) {
			return n.mismatch(path)
		}
	case kindBoolean:
		if _, ok := value.(bool); !ok {
			return n.mismatch(path)
		}
	}
	return nil
}

func (n *shapeNode) mismatch(path string) error {
	return ShapeError{Path: path, Message: "expected " + kindNames[n.kind]}
}
