package fatsecret

import (
	"encoding/json"
	"strconv"
)

// The platform API returns every numeric field as a string, and collapses
// single-element arrays to a bare object. These types absorb both quirks.

// numeric is a float64 decoded from either a JSON number or a quoted string.
type numeric float64

func (n *numeric) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = numeric(v)
	return nil
}

func (n *numeric) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

type searchResponse struct {
	Foods struct {
		Food         foodList `json:"food"`
		TotalResults numeric  `json:"total_results"`
	} `json:"foods"`
	Error *apiError `json:"error,omitempty"`
}

type foodResponse struct {
	Food struct {
		ID       string `json:"food_id"`
		Name     string `json:"food_name"`
		Type     string `json:"food_type"`
		Brand    string `json:"brand_name"`
		Servings struct {
			Serving servingList `json:"serving"`
		} `json:"servings"`
	} `json:"food"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type foodItem struct {
	ID    string `json:"food_id"`
	Name  string `json:"food_name"`
	Type  string `json:"food_type"`
	Brand string `json:"brand_name"`
}

// foodList decodes both a JSON array and the bare object the API returns for
// single-result searches.
type foodList []foodItem

func (l *foodList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]foodItem)(l))
	}
	var single foodItem
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = foodList{single}
	return nil
}

type servingItem struct {
	ID           string   `json:"serving_id"`
	Description  string   `json:"serving_description"`
	MetricAmount *numeric `json:"metric_serving_amount"`
	MetricUnit   string   `json:"metric_serving_unit"`
	Calories     *numeric `json:"calories"`
	Protein      *numeric `json:"protein"`
	Carbohydrate *numeric `json:"carbohydrate"`
	Fat          *numeric `json:"fat"`
	SaturatedFat *numeric `json:"saturated_fat"`
	Fiber        *numeric `json:"fiber"`
	Sugar        *numeric `json:"sugar"`
	Sodium       *numeric `json:"sodium"`
}

type servingList []servingItem

func (l *servingList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]servingItem)(l))
	}
	var single servingItem
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = servingList{single}
	return nil
}
