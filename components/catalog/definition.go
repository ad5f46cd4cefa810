package catalog

import "github.com/goliatone/go-formpipe/pkg/model"

const decimalPattern = `^\d+(\.\d{1,2})?$`

// Definition is the create/edit form for a catalog item.
var Definition = model.MustFormDefinition("catalog-item",
	model.FieldSchema{Name: "name", Label: "Name", Rules: []model.Rule{
		model.Required("Name is required"),
		model.MaxLength(255, ""),
	}},
	model.FieldSchema{Name: "category", Label: "Category", Rules: []model.Rule{
		model.Required("Category is required"),
		model.MaxLength(100, ""),
	}},
	model.FieldSchema{Name: "subcategory", Label: "Subcategory", Rules: []model.Rule{model.MaxLength(100, "")}},
	model.FieldSchema{Name: "brand", Label: "Brand", Rules: []model.Rule{model.MaxLength(100, "")}},
	model.FieldSchema{Name: "model", Label: "Model", Rules: []model.Rule{model.MaxLength(100, "")}},
	model.FieldSchema{Name: "defaultRate", Label: "Default rate", Input: model.InputNumber, Rules: []model.Rule{
		model.Pattern(decimalPattern, "Enter an amount such as 12.50"),
	}},
	model.FieldSchema{Name: "pricePolicy", Label: "Price policy", Input: model.InputNumber, Rules: []model.Rule{
		model.Pattern(`^\d+$`, "Enter a price policy id"),
	}},
	model.FieldSchema{Name: "weight", Label: "Weight", Input: model.InputNumber, Rules: []model.Rule{
		model.Pattern(decimalPattern, "Enter a weight such as 3.5"),
	}},
	model.FieldSchema{Name: "power", Label: "Power", Rules: []model.Rule{model.MaxLength(100, "")}},
	model.FieldSchema{Name: "sellable", Label: "Sellable", Input: model.InputCheckbox},
	model.FieldSchema{Name: "rentable", Label: "Rentable", Input: model.InputCheckbox},
	model.FieldSchema{Name: "isConsumable", Label: "Consumable", Input: model.InputCheckbox},
	model.FieldSchema{Name: "upright_only", Label: "Upright only", Input: model.InputCheckbox},
)
