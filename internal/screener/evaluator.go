package screener

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// floatEpsilon bounds equality comparison of parsed numeric values.
const floatEpsilon = 1e-9

// EvaluateRule evaluates a single custom rule against one record.
// It fails closed: an unknown field, an unparseable numeric operand or an
// operator/field-type mismatch all evaluate to false. No error ever escapes
// the evaluator since rule lists are user-authored.
func EvaluateRule(record *models.StockRecord, rule *models.CustomRule) bool {
	if record == nil || rule == nil {
		return false
	}

	fieldValue, ok := record.Field(rule.Field)
	if !ok {
		return false
	}

	switch rule.Operator {
	case models.OpContains:
		// Substring match is only meaningful on text fields.
		text, isString := fieldValue.(string)
		if !isString {
			return false
		}
		return strings.Contains(text, stringify(rule.Value))

	case models.OpEQ, models.OpNEQ:
		equal := looseEqual(fieldValue, rule.Value)
		if rule.Operator == models.OpNEQ {
			return !equal
		}
		return equal

	case models.OpGT, models.OpGTE, models.OpLT, models.OpLTE:
		left, leftOK := toFloat(fieldValue)
		right, rightOK := toFloat(rule.Value)
		if !leftOK || !rightOK {
			return false
		}
		switch rule.Operator {
		case models.OpGT:
			return left > right
		case models.OpGTE:
			return left >= right
		case models.OpLT:
			return left < right
		default:
			return left <= right
		}

	default:
		return false
	}
}

// looseEqual compares numerically when both operands parse as numbers and
// falls back to exact string equality otherwise.
func looseEqual(a, b interface{}) bool {
	left, leftOK := toFloat(a)
	right, rightOK := toFloat(b)
	if leftOK && rightOK {
		return math.Abs(left-right) < floatEpsilon
	}
	return stringify(a) == stringify(b)
}

// toFloat converts a record field or rule operand to float64.
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
