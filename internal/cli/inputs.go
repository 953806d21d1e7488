package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseInputs разбирает флаги вида KEY=VALUE в значения для CITESTE.
func ParseInputs(pairs []string) (map[string]int64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	inputs := make(map[string]int64, len(pairs))
	for _, kv := range pairs {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("input %s: %q is not an integer", name, value)
		}
		inputs[name] = n
	}
	return inputs, nil
}

// LoadInputsFile читает значения для CITESTE из YAML-файла:
//
//	n: 10
//	limita: -3
func LoadInputsFile(path string) (map[string]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inputs: open %s: %w", path, err)
	}
	defer file.Close()

	return DecodeInputs(file)
}

// DecodeInputs декодирует YAML-словарь имя → целое число.
// Пустой документ даёт пустой набор.
func DecodeInputs(r io.Reader) (map[string]int64, error) {
	var raw map[string]int64
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("inputs: parse: %w", err)
	}
	if raw == nil {
		raw = map[string]int64{}
	}
	return raw, nil
}

// MergeInputs объединяет наборы; значения из later перекрывают earlier.
func MergeInputs(earlier, later map[string]int64) map[string]int64 {
	if earlier == nil && later == nil {
		return nil
	}
	merged := make(map[string]int64, len(earlier)+len(later))
	for k, v := range earlier {
		merged[k] = v
	}
	for k, v := range later {
		merged[k] = v
	}
	return merged
}
