package randgen

import (
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/google/uuid"
)

// registerBuiltins wires a concrete instance of the column-type catalogue
// used by every attribute's generator dispatch: generate(type, args, seed).
func registerBuiltins(r *Registry) {
	r.Register("ascii", genText(asciiAlphabet))
	r.Register("text", genText(textAlphabet))
	r.Register("varchar", genText(textAlphabet))
	r.Register("blob", genBlob)
	r.Register("boolean", genBoolean)
	r.Register("int", genInt)
	r.Register("bigint", genBigint)
	r.Register("counter", genBigint)
	r.Register("float", genFloat)
	r.Register("double", genDouble)
	r.Register("decimal", genDecimal)
	r.Register("varint", genVarint)
	r.Register("inet", genInet)
	r.Register("timestamp", genTimestamp)
	r.Register("uuid", genUUID)
	r.Register("timeuuid", genTimeUUID)
	r.Register("list", genList)
	r.Register("set", genSet)
	r.Register("map", genMap)
}

const (
	asciiAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	textAlphabet  = asciiAlphabet + " .,-_"
)

// defaultMaxRetries bounds the composite-generator retry loop: when the
// requested size exceeds what the domain can supply distinctly, fail with
// GeneratorExhausted instead of looping forever.
const defaultMaxRetries = 1000

func argInt(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func argFloat64(args map[string]any, key string, def float64) float64 {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func argString(args map[string]any, key string, def string) string {
	if args == nil {
		return def
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

func genText(alphabet string) GeneratorFunc {
	return func(g *RNG, _ *Registry, args map[string]any) (any, error) {
		minLen := argInt(args, "min_length", 4)
		maxLen := argInt(args, "max_length", 16)
		if maxLen < minLen {
			maxLen = minLen
		}
		n := minLen
		if maxLen > minLen {
			n = minLen + g.Choice(maxLen-minLen+1)
		}
		var sb strings.Builder
		sb.Grow(n)
		for i := 0; i < n; i++ {
			sb.WriteByte(alphabet[g.Choice(len(alphabet))])
		}
		return sb.String(), nil
	}
}

func genBlob(g *RNG, _ *Registry, args map[string]any) (any, error) {
	minLen := argInt(args, "min_length", 8)
	maxLen := argInt(args, "max_length", 64)
	if maxLen < minLen {
		maxLen = minLen
	}
	n := minLen
	if maxLen > minLen {
		n = minLen + g.Choice(maxLen-minLen+1)
	}
	buf := make([]byte, n)
	g.Bytes(buf)
	return buf, nil
}

func genBoolean(g *RNG, _ *Registry, _ map[string]any) (any, error) {
	return g.Choice(2) == 1, nil
}

func genInt(g *RNG, _ *Registry, args map[string]any) (any, error) {
	lo := int64(argInt(args, "min", -2147483648))
	hi := int64(argInt(args, "max", 2147483647))
	return int32(g.UniformInt(lo, hi+1)), nil
}

func genBigint(g *RNG, _ *Registry, args map[string]any) (any, error) {
	lo := int64(argFloat64(args, "min", -1_000_000_000_000))
	hi := int64(argFloat64(args, "max", 1_000_000_000_000))
	return g.UniformInt(lo, hi+1), nil
}

func genFloat(g *RNG, _ *Registry, args map[string]any) (any, error) {
	lo := argFloat64(args, "min", 0)
	hi := argFloat64(args, "max", 1000)
	return float32(lo + g.Uniform()*(hi-lo)), nil
}

func genDouble(g *RNG, _ *Registry, args map[string]any) (any, error) {
	lo := argFloat64(args, "min", 0)
	hi := argFloat64(args, "max", 1_000_000)
	return lo + g.Uniform()*(hi-lo), nil
}

func genDecimal(g *RNG, _ *Registry, args map[string]any) (any, error) {
	precision := argInt(args, "precision", 9)
	scale := argInt(args, "scale", 2)
	if precision <= 0 {
		precision = 9
	}
	if scale < 0 || scale > precision {
		scale = 2
	}
	maxUnscaled := int64(1)
	for i := 0; i < precision; i++ {
		maxUnscaled *= 10
	}
	unscaled := g.UniformInt(0, maxUnscaled)
	s := fmt.Sprintf("%0*d", precision, unscaled)
	if scale == 0 {
		return s, nil
	}
	split := len(s) - scale
	return s[:split] + "." + s[split:], nil
}

func genVarint(g *RNG, _ *Registry, args map[string]any) (any, error) {
	bits := argInt(args, "bits", 96)
	if bits <= 0 || bits > 512 {
		bits = 96
	}
	buf := make([]byte, (bits+7)/8)
	g.Bytes(buf)
	v := new(big.Int).SetBytes(buf)
	if g.Choice(2) == 1 {
		v.Neg(v)
	}
	return v, nil
}

func genInet(g *RNG, _ *Registry, args map[string]any) (any, error) {
	v6 := false
	if b, ok := args["v6"].(bool); ok {
		v6 = b
	}
	if v6 {
		buf := make([]byte, 16)
		g.Bytes(buf)
		return net.IP(buf), nil
	}
	buf := make([]byte, 4)
	g.Bytes(buf)
	return net.IPv4(buf[0], buf[1], buf[2], buf[3]), nil
}

// Default bounds avoid time.Now() entirely: a generator's output is a pure
// function of (args, seed), so a wall-clock default would silently break
// reproducibility for runs on different days.
var (
	defaultTimestampMin = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	defaultTimestampMax = time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
)

func genTimestamp(g *RNG, _ *Registry, args map[string]any) (any, error) {
	lo := int64(argFloat64(args, "min_unix_seconds", float64(defaultTimestampMin)))
	hi := int64(argFloat64(args, "max_unix_seconds", float64(defaultTimestampMax)))
	if hi <= lo {
		hi = lo + 1
	}
	return time.Unix(g.UniformInt(lo, hi), 0).UTC(), nil
}

func genUUID(g *RNG, _ *Registry, _ map[string]any) (any, error) {
	var buf [16]byte
	g.Bytes(buf[:])
	id, err := uuid.FromBytes(buf[:])
	if err != nil {
		return nil, fmt.Errorf("randgen: uuid: %w", err)
	}
	// Set version 4 / variant RFC 4122 bits so the value round-trips
	// through drivers that validate UUID shape, while still being a pure
	// function of the seeded byte stream.
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id, nil
}

func genTimeUUID(g *RNG, reg *Registry, args map[string]any) (any, error) {
	tsVal, err := genTimestamp(g, reg, args)
	if err != nil {
		return nil, err
	}
	ts := tsVal.(time.Time)

	var rest [10]byte
	g.Bytes(rest[:])

	id, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("randgen: timeuuid: %w", err)
	}
	// Overwrite uuid.NewUUID's wall-clock time/node/clock-seq fields with
	// deterministic, seed-derived bytes: NewUUID is only used here for its
	// correct version-1 bit layout, not its entropy source.
	gregorianOffset := int64(122192928000000000)
	hundredNanos := gregorianOffset + ts.UnixNano()/100
	id[0] = byte(hundredNanos >> 24)
	id[1] = byte(hundredNanos >> 16)
	id[2] = byte(hundredNanos >> 8)
	id[3] = byte(hundredNanos)
	id[4] = byte(hundredNanos >> 40)
	id[5] = byte(hundredNanos >> 32)
	id[6] = byte(hundredNanos>>56)&0x0f | 0x10
	id[7] = byte(hundredNanos >> 48)
	copy(id[8:], rest[:])
	id[8] = (id[8] & 0x3f) | 0x80
	return id, nil
}

func compositeLength(g *RNG, args map[string]any) int {
	minLen := argInt(args, "min_length", 1)
	maxLen := argInt(args, "max_length", 5)
	if maxLen < minLen {
		maxLen = minLen
	}
	if maxLen == minLen {
		return minLen
	}
	return minLen + g.Choice(maxLen-minLen+1)
}

func elementArgs(args map[string]any) (string, map[string]any) {
	elemType := argString(args, "element_type", "int")
	elemArgs, _ := args["element_args"].(map[string]any)
	return elemType, elemArgs
}

func genList(g *RNG, reg *Registry, args map[string]any) (any, error) {
	n := compositeLength(g, args)
	elemType, elemArgs := elementArgs(args)

	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := reg.Generate(g, elemType, g.r.Uint64(), elemArgs)
		if err != nil {
			return nil, fmt.Errorf("randgen: list element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// genSet draws n distinct values, bounded-retrying up to defaultMaxRetries
// total draws before failing with GeneratorExhausted instead of looping
// forever when the value domain is smaller than the requested size.
func genSet(g *RNG, reg *Registry, args map[string]any) (any, error) {
	n := compositeLength(g, args)
	elemType, elemArgs := elementArgs(args)

	seen := make(map[any]struct{}, n)
	out := make([]any, 0, n)
	for attempts := 0; len(out) < n; attempts++ {
		if attempts >= defaultMaxRetries {
			return nil, fmt.Errorf("randgen: set: %w (wanted %d distinct values, got %d after %d draws)",
				errs.ErrGeneratorExhausted, n, len(out), attempts)
		}
		v, err := reg.Generate(g, elemType, g.r.Uint64(), elemArgs)
		if err != nil {
			return nil, fmt.Errorf("randgen: set element: %w", err)
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func genMap(g *RNG, reg *Registry, args map[string]any) (any, error) {
	n := compositeLength(g, args)
	keyType := argString(args, "key_type", "int")
	keyArgs, _ := args["key_args"].(map[string]any)
	valType := argString(args, "value_type", "text")
	valArgs, _ := args["value_args"].(map[string]any)

	out := make(map[any]any, n)
	for attempts := 0; len(out) < n; attempts++ {
		if attempts >= defaultMaxRetries {
			return nil, fmt.Errorf("randgen: map: %w (wanted %d distinct keys, got %d after %d draws)",
				errs.ErrGeneratorExhausted, n, len(out), attempts)
		}
		k, err := reg.Generate(g, keyType, g.r.Uint64(), keyArgs)
		if err != nil {
			return nil, fmt.Errorf("randgen: map key: %w", err)
		}
		if _, dup := out[k]; dup {
			continue
		}
		v, err := reg.Generate(g, valType, g.r.Uint64(), valArgs)
		if err != nil {
			return nil, fmt.Errorf("randgen: map value: %w", err)
		}
		out[k] = v
	}
	return out, nil
}
