package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind 单元格取值类型
type ValueKind uint8

const (
	KindAbsent ValueKind = iota // 缺失 / null
	KindString
	KindNumber
	KindBool
)

// Value 数据集单元格（字符串 / 数值 / 布尔 / 缺失）
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// Absent 缺失值
func Absent() Value { return Value{} }

// String 构造字符串值
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number 构造数值
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool 构造布尔值
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsAbsent 是否缺失
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// HasData 非缺失且非空字符串
func (v Value) HasData() bool {
	if v.Kind == KindAbsent {
		return false
	}
	return !(v.Kind == KindString && v.Str == "")
}

// Truthy 层级字段是否“存在”：非空字符串、非零数值、true
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindString:
		return v.Str != ""
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindBool:
		return v.Bool
	}
	return false
}

// Text 字符串形式，缺失为空串
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Float 数值形式；字符串按数字解析，布尔 true=1 false=0
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, !math.IsNaN(v.Num)
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// MarshalJSON 缺失值输出为 null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	}
	return []byte("null"), nil
}

// UnmarshalJSON 仅接受标量；对象与数组视为格式错误
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Absent()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{', '[':
		return fmt.Errorf("unsupported value: %s", data)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid number %s: %w", data, err)
		}
		*v = Number(f)
	}
	return nil
}

// Row 数据集中的一行：字段名 → 值
type Row map[string]Value

// Get 取字段值，不存在时返回缺失
func (r Row) Get(field string) Value {
	if r == nil {
		return Absent()
	}
	return r[field]
}
