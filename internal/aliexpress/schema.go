package aliexpress

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const numberOrString = `{"type": ["number", "string"]}`

var runParamsSchema = mustSchema(`{
  "type": "object",
  "required": ["priceComponent", "storeHeaderComponent", "sellerComponent", "productInfoComponent", "productDescComponent"],
  "properties": {
    "priceComponent": {
      "type": "object",
      "required": ["skuJson"],
      "properties": {"skuJson": {"type": "string"}}
    },
    "storeHeaderComponent": {
      "type": "object",
      "required": ["storeHeaderResult"],
      "properties": {
        "storeHeaderResult": {
          "type": "object",
          "required": ["tabList", "storeName"],
          "properties": {
            "storeName": {"type": "string"},
            "tabList": {
              "type": "array",
              "minItems": 5,
              "items": {
                "type": "object",
                "required": ["url"],
                "properties": {"url": {"type": "string"}}
              }
            }
          }
        }
      }
    },
    "sellerComponent": {
      "type": "object",
      "required": ["storeNum", "storeLogo"],
      "properties": {
        "storeNum": ` + numberOrString + `,
        "storeLogo": {"type": "string"}
      }
    },
    "productInfoComponent": {
      "type": "object",
      "required": ["subject"],
      "properties": {"subject": {"type": "string"}}
    },
    "productDescComponent": {
      "type": "object",
      "required": ["descriptionUrl"],
      "properties": {"descriptionUrl": {"type": "string"}}
    }
  }
}`)

var amountSchema = `{
  "type": "object",
  "required": ["value"],
  "properties": {"value": ` + numberOrString + `}
}`

// skuSchema only constrains the first SKU, the one the output is built from.
var skuSchema = mustSchema(`{
  "type": "array",
  "minItems": 1,
  "items": [{
    "type": "object",
    "required": ["skuVal"],
    "properties": {
      "skuVal": {
        "type": "object",
        "required": ["availQuantity", "skuAmount", "discount", "skuActivityAmount"],
        "properties": {
          "availQuantity": ` + numberOrString + `,
          "discount": ` + numberOrString + `,
          "skuAmount": {
            "type": "object",
            "required": ["currency", "value"],
            "properties": {
              "currency": {"type": "string"},
              "value": ` + numberOrString + `
            }
          },
          "skuActivityAmount": ` + amountSchema + `
        }
      }
    }
  }]
}`)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("aliexpress: compile schema: %v", err))
	}
	return s
}

// validate checks doc against schema and reports the first offending path,
// prefixed with root when set, as ErrFieldMissing.
func validate(schema *gojsonschema.Schema, root string, doc []byte) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if res.Valid() {
		return nil
	}
	e := res.Errors()[0]
	return fmt.Errorf("%w: %s (%s)", ErrFieldMissing, fieldPath(root, e), e.Description())
}

func fieldPath(root string, e gojsonschema.ResultError) string {
	var parts []string
	if root != "" {
		parts = append(parts, root)
	}
	if f := e.Field(); f != "" && f != "(root)" {
		parts = append(parts, f)
	}
	if e.Type() == "required" {
		if p, ok := e.Details()["property"].(string); ok {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}
