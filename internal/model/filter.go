package model

import "fmt"

// Operation 过滤操作符
type Operation string

const (
	OpEqual        Operation = "="
	OpGreater      Operation = ">"
	OpLess         Operation = "<"
	OpGreaterEqual Operation = ">="
	OpLessEqual    Operation = "<="
	OpNotEqual     Operation = "!="
	OpIn           Operation = "in"
	OpNotIn        Operation = "not in"
	OpLike         Operation = "like"
	OpNotLike      Operation = "not like"
	OpBetween      Operation = "between"
	OpNotBetween   Operation = "not between"
	OpIsNull       Operation = "is null"
	OpIsNotNull    Operation = "is not null"
)

var validOperations = map[Operation]bool{
	OpEqual: true, OpGreater: true, OpLess: true, OpGreaterEqual: true,
	OpLessEqual: true, OpNotEqual: true, OpIn: true, OpNotIn: true,
	OpLike: true, OpNotLike: true, OpBetween: true, OpNotBetween: true,
	OpIsNull: true, OpIsNotNull: true,
}

// Valid 是否为支持的操作符
func (o Operation) Valid() bool { return validOperations[o] }

// FilterValue 宿主传入的过滤条件（仅透传，不在本服务内执行）
type FilterValue struct {
	FilterID  string    `json:"filterId"`
	Name      string    `json:"name"`
	ValueType string    `json:"valueType"` // string / number / date / boolean
	Operation Operation `json:"operation"`
	Values    []Value   `json:"values"`
}

// Validate 校验操作符与值类型
func (f FilterValue) Validate() error {
	if !f.Operation.Valid() {
		return fmt.Errorf("unsupported filter operation %q", f.Operation)
	}
	switch f.ValueType {
	case "string", "number", "date", "boolean":
	default:
		return fmt.Errorf("unsupported filter value type %q", f.ValueType)
	}
	return nil
}
