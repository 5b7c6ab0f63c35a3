package dynamo

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// The default attributevalue codec reflects over struct fields, which
// silently drops types that keep their state unexported, like
// decimal.Decimal. Routing every encode and decode through the text
// marshalers stores such values as strings and reads them back intact.
func encoderOpts(o *attributevalue.EncoderOptions) { o.UseEncodingMarshalers = true }
func decoderOpts(o *attributevalue.DecoderOptions) { o.UseEncodingUnmarshalers = true }

func marshalItem(v interface{}) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMapWithOptions(v, encoderOpts)
}

func unmarshalItem(item map[string]types.AttributeValue, out interface{}) error {
	return attributevalue.UnmarshalMapWithOptions(item, out, decoderOpts)
}

func unmarshalItems(items []map[string]types.AttributeValue, out interface{}) error {
	return attributevalue.UnmarshalListOfMapsWithOptions(items, out, decoderOpts)
}

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
func buildUpdateExpr(updates map[string]interface{}) (expr string, names map[string]string, values map[string]types.AttributeValue, err error) {
	names = make(map[string]string)
	values = make(map[string]types.AttributeValue)
	expr = "SET "
	i := 0
	for k, v := range updates {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = k
		av, mErr := attributevalue.MarshalWithOptions(v, encoderOpts)
		if mErr != nil {
			return "", nil, nil, fmt.Errorf("marshal field %s: %w", k, mErr)
		}
		values[valueKey] = av
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
		i++
	}
	if i == 0 {
		return "", nil, nil, fmt.Errorf("no fields to update")
	}
	return expr, names, values, nil
}
