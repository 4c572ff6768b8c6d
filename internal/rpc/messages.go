package rpc

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrInvalidRequest reports a Plan request with missing or mistyped fields.
var ErrInvalidRequest = errors.New("invalid plan request")

// PlanRequest is the decoded form of a Plan request struct.
type PlanRequest struct {
	// Problem is the problem document, in Format.
	Problem string
	// Format is "prob" (default) or "yaml".
	Format        string
	Heuristic     string
	Algorithm     string
	MaxExpansions int
}

// PlanResponse is the decoded form of a Plan response struct.
type PlanResponse struct {
	PlanID     string
	Cost       float64
	Steps      int
	Expansions int
	// Actions holds one rendered action per satellite hour, in plan order.
	Actions []string
	// StepsTrace groups Actions into numbered time steps.
	StepsTrace []string
}

var requestFields = map[string]bool{
	"problem":        true,
	"format":         true,
	"heuristic":      true,
	"algorithm":      true,
	"max_expansions": true,
}

// ToStruct encodes r as a protobuf Struct.
func (r PlanRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"problem": r.Problem,
	}
	if r.Format != "" {
		fields["format"] = r.Format
	}
	if r.Heuristic != "" {
		fields["heuristic"] = r.Heuristic
	}
	if r.Algorithm != "" {
		fields["algorithm"] = r.Algorithm
	}
	if r.MaxExpansions != 0 {
		fields["max_expansions"] = r.MaxExpansions
	}
	return structpb.NewStruct(fields)
}

// PlanRequestFromStruct decodes and checks a Plan request.
func PlanRequestFromStruct(s *structpb.Struct) (PlanRequest, error) {
	if s == nil {
		return PlanRequest{}, fmt.Errorf("%w: request is required", ErrInvalidRequest)
	}
	for name := range s.GetFields() {
		if !requestFields[name] {
			return PlanRequest{}, fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, name)
		}
	}

	var (
		req PlanRequest
		err error
	)
	if req.Problem, err = stringField(s, "problem", true); err != nil {
		return PlanRequest{}, err
	}
	if req.Format, err = stringField(s, "format", false); err != nil {
		return PlanRequest{}, err
	}
	if req.Heuristic, err = stringField(s, "heuristic", false); err != nil {
		return PlanRequest{}, err
	}
	if req.Algorithm, err = stringField(s, "algorithm", false); err != nil {
		return PlanRequest{}, err
	}
	if req.MaxExpansions, err = intField(s, "max_expansions"); err != nil {
		return PlanRequest{}, err
	}
	if req.MaxExpansions < 0 {
		return PlanRequest{}, fmt.Errorf("%w: max_expansions must not be negative", ErrInvalidRequest)
	}
	return req, nil
}

// ToStruct encodes r as a protobuf Struct.
func (r PlanResponse) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"plan_id":     r.PlanID,
		"cost":        r.Cost,
		"steps":       r.Steps,
		"expansions":  r.Expansions,
		"actions":     stringsToList(r.Actions),
		"steps_trace": stringsToList(r.StepsTrace),
	})
}

// PlanResponseFromStruct decodes a Plan response.
func PlanResponseFromStruct(s *structpb.Struct) (*PlanResponse, error) {
	if s == nil {
		return nil, errors.New("empty plan response")
	}
	resp := &PlanResponse{
		PlanID: s.GetFields()["plan_id"].GetStringValue(),
		Cost:   s.GetFields()["cost"].GetNumberValue(),
	}
	var err error
	if resp.Steps, err = intField(s, "steps"); err != nil {
		return nil, err
	}
	if resp.Expansions, err = intField(s, "expansions"); err != nil {
		return nil, err
	}
	resp.Actions = listToStrings(s.GetFields()["actions"])
	resp.StepsTrace = listToStrings(s.GetFields()["steps_trace"])
	return resp, nil
}

func stringField(s *structpb.Struct, name string, required bool) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
		}
		return "", nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidRequest, name)
	}
	if required && str.StringValue == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}
	return str.StringValue, nil
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, name)
	}
	f := num.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidRequest, name, f)
	}
	return int(f), nil
}

func stringsToList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func listToStrings(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, item := range values {
		out = append(out, item.GetStringValue())
	}
	return out
}
