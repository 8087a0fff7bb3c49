package accessor

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/hengadev/errsx"
)

// ErrInvalidMember is returned when a struct's member annotations cannot be
// interpreted.
var ErrInvalidMember = errors.New("invalid member annotation")

var (
	dataContractType   = reflect.TypeFor[DataContract]()
	propertyTaggerType = reflect.TypeFor[PropertyTagger]()
)

type cacheKey struct {
	typ  reflect.Type
	mode Mode
}

type buildFunc = func() (*Members, error)

// Cache memoizes member lists per struct type and mode. Each entry is built
// exactly once; concurrent lookups never block each other after that.
type Cache struct {
	entries sync.Map // cacheKey -> buildFunc
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the members of struct type t in mode.
func (c *Cache) Get(t reflect.Type, mode Mode) (*Members, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidMember, t)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMember, mode)
	}
	key := cacheKey{typ: t, mode: mode}
	if f, ok := c.entries.Load(key); ok {
		return f.(buildFunc)()
	}
	f, _ := c.entries.LoadOrStore(key, sync.OnceValues(func() (*Members, error) {
		return build(t, mode)
	}))
	return f.(buildFunc)()
}

// IsDataContract reports whether t embeds DataContract.
func IsDataContract(t reflect.Type) bool {
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type == dataContractType {
			return true
		}
	}
	return false
}

type builder struct {
	typ          reflect.Type
	dataContract bool
	list         []*Member
	index        map[string]*Member
	errs         errsx.Map
	needsAddr    bool
}

func build(t reflect.Type, mode Mode) (*Members, error) {
	b := &builder{
		typ:          t,
		dataContract: IsDataContract(t),
		index:        make(map[string]*Member),
	}
	switch mode {
	case FieldMode:
		b.addFields(t, nil)
	case PropertyMode:
		b.addProperties()
	default:
		b.addProperties()
		b.addFields(t, nil)
	}
	if !b.errs.IsEmpty() {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMember, t, b.errs.AsError())
	}
	slices.SortStableFunc(b.list, func(x, y *Member) int {
		return x.Order - y.Order
	})
	return &Members{
		Type:      t,
		Mode:      mode,
		List:      b.list,
		NeedsAddr: b.needsAddr,
		index:     b.index,
	}, nil
}

// add registers m unless a member with the same case-insensitive name is
// already present.
func (b *builder) add(m *Member) {
	key := strings.ToLower(m.Name)
	if _, exists := b.index[key]; exists {
		return
	}
	b.index[key] = m
	b.list = append(b.list, m)
	if m.Kind == Property || m.unexported {
		b.needsAddr = true
	}
}

// addFields walks t's fields. Direct fields are visited before the fields
// promoted from embedded structs so that shallower names win.
func (b *builder) addFields(t reflect.Type, prefix []int) {
	var embedded []reflect.StructField
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Type == dataContractType {
			continue
		}
		tag, hasTag := f.Tag.Lookup(TagName)
		a, err := parseAnnotation(tag, hasTag)
		if err != nil {
			b.errs.Set(f.Name, err)
			continue
		}
		if a.skip {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && a.name == "" {
			embedded = append(embedded, f)
			continue
		}
		if b.dataContract && !a.present {
			continue
		}
		if !f.IsExported() && !b.dataContract {
			continue
		}
		name := f.Name
		if a.name != "" {
			name = a.name
		}
		b.add(&Member{
			Name:       UnifiedName(name),
			GoName:     f.Name,
			Type:       f.Type,
			Order:      a.order,
			Kind:       Field,
			index:      append(slices.Clone(prefix), f.Index...),
			unexported: !f.IsExported(),
		})
	}
	for _, f := range embedded {
		b.addFields(f.Type, append(slices.Clone(prefix), f.Index...))
	}
}

// addProperties collects X/SetX method pairs on *T.
func (b *builder) addProperties() {
	pt := reflect.PointerTo(b.typ)
	annotations := map[string]string{}
	if pt.Implements(propertyTaggerType) {
		annotations = reflect.New(b.typ).Interface().(PropertyTagger).PropertyTags()
	}
	for i := range pt.NumMethod() {
		setter := pt.Method(i)
		name, ok := strings.CutPrefix(setter.Name, "Set")
		if !ok || name == "" {
			continue
		}
		getter, ok := pt.MethodByName(name)
		if !ok {
			continue
		}
		// Method types include the receiver as the first argument.
		gt, st := getter.Type, setter.Type
		if gt.NumIn() != 1 || gt.NumOut() != 1 || st.NumIn() != 2 || st.NumOut() != 0 {
			continue
		}
		if st.In(1) != gt.Out(0) {
			continue
		}
		tag, hasTag := annotations[name]
		a, err := parseAnnotation(tag, hasTag)
		if err != nil {
			b.errs.Set(name, err)
			continue
		}
		if a.skip || (b.dataContract && !a.present) {
			continue
		}
		wireName := name
		if a.name != "" {
			wireName = a.name
		}
		b.add(&Member{
			Name:   UnifiedName(wireName),
			GoName: name,
			Type:   gt.Out(0),
			Order:  a.order,
			Kind:   Property,
			getter: getter.Index,
			setter: setter.Index,
		})
	}
}
