package store

// MonthlyRecord is one entity's quantity and revenue for one month, e.g. a
// product bought by a client in March.
type MonthlyRecord struct {
	Entity   string  `json:"entity"`
	Month    string  `json:"month"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// EntityTotal aggregates quantity and revenue for a client, product or route.
type EntityTotal struct {
	Entity   string  `json:"entity"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// ClientMonthSales is a client's invoiced total for a month and the route the
// client belongs to.
type ClientMonthSales struct {
	Month string  `json:"month"`
	Route string  `json:"route"`
	Total float64 `json:"total"`
}

// MonthTotal is a single value for a month.
type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// ProductMonth is a product's monthly volume and reach.
type ProductMonth struct {
	Month         string  `json:"month"`
	Quantity      float64 `json:"quantity"`
	Revenue       float64 `json:"revenue"`
	UniqueClients int     `json:"unique_clients"`
	UniqueRoutes  int     `json:"unique_routes"`
}

// EntityMonth is an entity's total for one month, e.g. a sales manager's
// revenue in March.
type EntityMonth struct {
	Entity string  `json:"entity"`
	Month  string  `json:"month"`
	Total  float64 `json:"total"`
}

// Customer is a row of customer_master.
type Customer struct {
	Code    string
	Name    string
	Group   string
	Route   string
	Manager string
}

// Sale is a row of sales_per_client.
type Sale struct {
	CustomerCode string
	CustomerName string
	Item         string
	Month        string
	Quantity     float64
	Amount       float64
}

// CustomerSale is a row of customer_wise_sales.
type CustomerSale struct {
	CustomerCode string
	CustomerName string
	Month        string
	Total        float64
}

// RouteSale is a row of route_wise_sales.
type RouteSale struct {
	Route  string
	Month  string
	Amount float64
}
