package randgen

import (
	"errors"
	"math/big"
	"net"
	"testing"

	"github.com/elchinoo/colt/internal/pipeline/errs"
)

func TestGenerateSameSeedSameValue(t *testing.T) {
	reg := NewRegistry()
	g := New(0)

	types := []string{"ascii", "text", "boolean", "int", "bigint", "float", "double", "decimal", "varint", "inet", "timestamp", "uuid", "timeuuid"}
	for _, typeTag := range types {
		t.Run(typeTag, func(t *testing.T) {
			a, err := reg.Generate(g, typeTag, 42, nil)
			if err != nil {
				t.Fatalf("Generate(%q, 42) #1 error: %v", typeTag, err)
			}
			b, err := reg.Generate(g, typeTag, 42, nil)
			if err != nil {
				t.Fatalf("Generate(%q, 42) #2 error: %v", typeTag, err)
			}
			if !deepEqualGenerated(a, b) {
				t.Fatalf("Generate(%q, 42) not reproducible: %v != %v", typeTag, a, b)
			}
		})
	}
}

func TestUnknownGeneratorType(t *testing.T) {
	reg := NewRegistry()
	g := New(1)
	_, err := reg.Generate(g, "nonsense", 1, nil)
	if !errors.Is(err, errs.ErrUnknownGeneratorType) {
		t.Fatalf("expected ErrUnknownGeneratorType, got %v", err)
	}
}

func TestSetGeneratorExhausted(t *testing.T) {
	reg := NewRegistry()
	g := New(5)
	args := map[string]any{
		"min_length":   20,
		"max_length":   20,
		"element_type": "boolean",
	}
	_, err := reg.Generate(g, "set", 1, args)
	if !errors.Is(err, errs.ErrGeneratorExhausted) {
		t.Fatalf("expected ErrGeneratorExhausted for a 20-element boolean set, got %v", err)
	}
}

func TestIntRespectsBounds(t *testing.T) {
	reg := NewRegistry()
	g := New(3)
	args := map[string]any{"min": 10, "max": 20}
	for i := 0; i < 1000; i++ {
		v, err := reg.Generate(g, "int", uint64(i), args)
		if err != nil {
			t.Fatalf("Generate(int) error: %v", err)
		}
		n := v.(int32)
		if n < 10 || n > 20 {
			t.Fatalf("int generator produced %d, outside [10,20]", n)
		}
	}
}

func deepEqualGenerated(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && string(av) == string(bv)
	case net.IP:
		bv, ok := b.(net.IP)
		return ok && av.Equal(bv)
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	default:
		return a == b
	}
}
