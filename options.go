package typebridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// defaultEnumCode is the shared fallback for module, target and jsx. The
// compiler's enumerations all happen to assign 1 to the baseline choices:
// CommonJS, ES5 and Preserve.
const defaultEnumCode = 1

type enumTable map[string]int

// Numeric codes mirror the TypeScript compiler's own enumerations. Keys
// are lowercased for case-insensitive lookup.
var (
	moduleKinds = enumTable{
		"none":     0,
		"commonjs": 1,
		"amd":      2,
		"umd":      3,
		"system":   4,
		"es6":      5,
		"es2015":   5,
		"es2020":   6,
		"es2022":   7,
		"esnext":   99,
		"node16":   100,
		"nodenext": 199,
	}

	scriptTargets = enumTable{
		"es3":    0,
		"es5":    1,
		"es6":    2,
		"es2015": 2,
		"es2016": 3,
		"es2017": 4,
		"es2018": 5,
		"es2019": 6,
		"es2020": 7,
		"es2021": 8,
		"es2022": 9,
		"esnext": 99,
	}

	jsxEmits = enumTable{
		"none":         0,
		"preserve":     1,
		"react":        2,
		"react-native": 3,
		"react-jsx":    4,
		"react-jsxdev": 5,
	}
)

// resolveEnum maps a user supplied enum choice onto the compiler's numeric
// code. Absent choices take the default, numbers and numeric strings pass
// through verbatim, and symbolic names match case-insensitively. Unknown
// names silently degrade to the default rather than erroring, so
// configurations written against newer compiler releases keep working.
func resolveEnum(choice any, table enumTable) int {
	switch v := choice.(type) {
	case int:
		if v != 0 {
			return v
		}
	case int64:
		if v != 0 {
			return int(v)
		}
	case float64:
		if v != 0 {
			return int(v)
		}
	case string:
		if v == "" {
			break
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		if code, ok := table[strings.ToLower(v)]; ok {
			return code
		}
	}
	return defaultEnumCode
}

// loadTsconfigOptions reads compilerOptions from <root>/tsconfig.json. A
// missing or unparseable file yields an empty mapping, never an error: the
// plugin options alone are a complete configuration.
func loadTsconfigOptions(logger *zap.Logger, root string) map[string]any {
	options := make(map[string]any)

	path := filepath.Join(root, "tsconfig.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return options
	}

	var parsed struct {
		CompilerOptions map[string]any `json:"compilerOptions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		logger.Warn("ignoring unparseable tsconfig.json",
			zap.String("path", path),
			zap.Error(err),
		)
		return options
	}

	for k, v := range parsed.CompilerOptions {
		options[k] = v
	}
	return options
}
