package fdc

// FoodData Central API structures

type SearchResponse struct {
	TotalHits int          `json:"totalHits"`
	Foods     []SearchFood `json:"foods"`
}

type SearchFood struct {
	FdcID       int    `json:"fdcId" validate:"gt=0"`
	Description string `json:"description" validate:"required"`
	DataType    string `json:"dataType"`
}

type FoodDetail struct {
	FdcID           int            `json:"fdcId" validate:"gt=0"`
	Description     string         `json:"description" validate:"required"`
	DataType        string         `json:"dataType"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	HouseholdText   string         `json:"householdServingFullText"`
	FoodNutrients   []FoodNutrient `json:"foodNutrients"`
	FoodPortions    []FoodPortion  `json:"foodPortions"`
}

type FoodNutrient struct {
	Nutrient NutrientInfo `json:"nutrient"`
	Amount   *float64     `json:"amount" validate:"required,gte=0"`
}

type NutrientInfo struct {
	ID       int    `json:"id" validate:"gt=0"`
	Name     string `json:"name"`
	UnitName string `json:"unitName" validate:"required"`
}

type FoodPortion struct {
	Amount             float64     `json:"amount" validate:"gte=0"`
	GramWeight         float64     `json:"gramWeight" validate:"gt=0"`
	Modifier           string      `json:"modifier"`
	PortionDescription string      `json:"portionDescription"`
	MeasureUnit        MeasureUnit `json:"measureUnit"`
}

type MeasureUnit struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}
