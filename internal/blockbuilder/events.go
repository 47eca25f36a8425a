package blockbuilder

import (
	"fmt"
	"strings"

	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
)

// DecodedEvent is one event, already sorted into its ApplyExtrinsic /
// Initialization / Finalization bucket.
type DecodedEvent struct {
	Pallet      string
	Name        string
	Data        any
	DecodeError string
}

// decodeEvents decodes the raw System.Events value (a Vec<EventRecord>,
// where EventRecord is {phase, event, topics}) into per-phase buckets.
// The whole value is decoded in one pass, so bytes that fail to decode
// fail the call. A record whose event payload has an unexpected shape is
// kept as a DecodeError-carrying placeholder; a record with no phase or
// event field is skipped.
func decodeEvents(raw []byte, view *metadata.View, renderer *scale.Renderer) (onInit, onFinalize []DecodedEvent, byExtrinsic map[uint32][]DecodedEvent, err error) {
	entry, ok := view.Pallet("System")
	if !ok {
		return nil, nil, nil, fmt.Errorf("blockbuilder: no System pallet in metadata")
	}
	se, ok := entry.Storage["Events"]
	if !ok {
		return nil, nil, nil, fmt.Errorf("blockbuilder: no System.Events storage entry in metadata")
	}

	dec := scale.NewDecoder(view.Registry)
	cur := scale.NewCursor(raw)
	root, decErr := dec.Decode(cur, se.ValueType)
	if decErr != nil {
		return nil, nil, nil, fmt.Errorf("blockbuilder: decode System.Events: %w", decErr)
	}

	byExtrinsic = map[uint32][]DecodedEvent{}
	for _, rec := range root.Elems {
		phaseNode, eventNode, findErr := eventRecordFields(rec)
		if findErr != nil {
			continue // malformed record shape; nothing sensible to categorize
		}
		ev := renderEventRecord(eventNode, renderer)

		switch strings.ToLower(phaseNode.Variant.Name) {
		case "applyextrinsic":
			idx := uint32(0)
			if len(phaseNode.Fields) == 1 && phaseNode.Fields[0].Value.Int != nil {
				idx = uint32(phaseNode.Fields[0].Value.Int.Uint64())
			}
			byExtrinsic[idx] = append(byExtrinsic[idx], ev)
		case "initialization":
			onInit = append(onInit, ev)
		case "finalization":
			onFinalize = append(onFinalize, ev)
		}
	}
	return onInit, onFinalize, byExtrinsic, nil
}

// eventRecordFields locates the phase and event fields of one
// EventRecord composite by name, tolerating field-name casing
// differences across metadata versions.
func eventRecordFields(rec scale.Node) (phase, event scale.Node, err error) {
	if rec.Kind != scale.KindComposite {
		return scale.Node{}, scale.Node{}, fmt.Errorf("event record is not a composite")
	}
	var foundPhase, foundEvent bool
	for _, f := range rec.Fields {
		switch strings.ToLower(f.Name) {
		case "phase":
			phase, foundPhase = f.Value, true
		case "event":
			event, foundEvent = f.Value, true
		}
	}
	if !foundPhase || !foundEvent {
		return scale.Node{}, scale.Node{}, fmt.Errorf("event record missing phase/event field")
	}
	return phase, event, nil
}

// renderEventRecord renders the outer per-pallet RuntimeEvent enum:
// its variant name is the pallet, and (for the ordinary case) its
// single unnamed field is itself a variant node naming the specific
// event and carrying its args.
func renderEventRecord(event scale.Node, renderer *scale.Renderer) DecodedEvent {
	if event.Kind != scale.KindVariant {
		return DecodedEvent{DecodeError: "event field is not a variant"}
	}
	pallet := event.Variant.Name
	if len(event.Fields) != 1 {
		return DecodedEvent{Pallet: pallet, DecodeError: "unexpected event payload shape"}
	}
	inner := event.Fields[0].Value
	if inner.Kind != scale.KindVariant {
		return DecodedEvent{Pallet: pallet, DecodeError: "inner event payload is not a variant"}
	}

	args := scale.NewJSONObject()
	for i, f := range inner.Fields {
		key := f.Name
		if !f.HasName {
			key = fmt.Sprintf("%d", i)
		}
		args.Set(scale.CamelCase(key), renderer.Render(scale.ContextEvent, f.Value, false))
	}
	return DecodedEvent{
		Pallet: pallet,
		Name:   inner.Variant.Name,
		Data:   args,
	}
}
