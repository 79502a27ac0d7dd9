package scene

import (
	"encoding/json"
	"fmt"
	"maps"

	"yd-go/internal/yd"
)

// toolTypes are the types NewObject builds. Loaded dumps may carry any
// other type.
var toolTypes = map[string]bool{
	yd.TypeCircle:   true,
	yd.TypeRect:     true,
	yd.TypeTriangle: true,
	yd.TypePolygon:  true,
	yd.TypeIText:    true,
	yd.TypeTextbox:  true,
	yd.TypePath:     true,
	yd.TypeImage:    true,
}

// Object is one drawable in a Canvas. Properties are kept as a loose map so
// anything a dump carries survives a load and save, including properties
// this package never reads.
type Object struct {
	objType string
	props   map[string]any
}

var _ yd.Object = (*Object)(nil)

func newObject(objType string, props map[string]any) (*Object, error) {
	if objType == "" {
		return nil, fmt.Errorf("object has no type")
	}
	p := make(map[string]any, len(props))
	maps.Copy(p, props)
	delete(p, "type")
	return &Object{objType: objType, props: p}, nil
}

func (o *Object) Type() string { return o.objType }

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.props[key]
	return v, ok
}

// Set merges props into the object. It raises no event.
func (o *Object) Set(props map[string]any) {
	for k, v := range props {
		if k == "type" {
			continue
		}
		o.props[k] = v
	}
}

func (o *Object) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(o.props)+1)
	maps.Copy(out, o.props)
	out["type"] = o.objType
	return json.Marshal(out)
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return fmt.Errorf("decoding object: %w", err)
	}
	if props == nil {
		return fmt.Errorf("object is null")
	}
	t, _ := props["type"].(string)
	obj, err := newObject(t, props)
	if err != nil {
		return err
	}
	*o = *obj
	return nil
}

func (o *Object) number(key string, fallback float64) float64 {
	if f, ok := toFloat(o.props[key]); ok {
		return f
	}
	return fallback
}

func (o *Object) str(key string) string {
	s, _ := o.props[key].(string)
	return s
}
