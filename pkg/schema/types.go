package schema

// DataType is a top-level evaluation context key that selects how the value
// under it is turned into analytics records.
type DataType string

const (
	DataTypeVariableKey DataType = "variableKey"
	DataTypeConversion  DataType = "conversion"
	DataTypeCustomData  DataType = "customData"
)

// Field names read from a value under the "conversion" key.
const (
	ConversionGoalID  = "goalId"
	ConversionRevenue = "revenue"
)

// Field names read from a value under the "customData" key.
const (
	CustomDataIndex  = "index"
	CustomDataValues = "values"
)
