// Package schema declares the destination tables of the sales normalization
// pipeline: five dimension tables plus the orderdetail fact table.
//
// Column names deliberately stay lowercase and unprefixed so the generated
// DDL looks the same across postgres, sqlite and mssql.
package schema

import "salesetl/internal/storage"

// Region holds the distinct region labels.
var Region = storage.TableSpec{
	Name:       "region",
	PrimaryKey: storage.PrimaryKeySpec{Name: "regionid", Type: "serial"},
	Columns: []storage.ColumnSpec{
		{Name: "region", Type: "text"},
	},
}

// Country references Region.
var Country = storage.TableSpec{
	Name:       "country",
	PrimaryKey: storage.PrimaryKeySpec{Name: "countryid", Type: "serial"},
	Columns: []storage.ColumnSpec{
		{Name: "country", Type: "text"},
		{Name: "regionid", Type: "integer", References: "region(regionid)"},
	},
}

// Customer references Country. The source has a single name field; it is
// split into firstname/lastname on the first space.
var Customer = storage.TableSpec{
	Name:       "customer",
	PrimaryKey: storage.PrimaryKeySpec{Name: "customerid", Type: "serial"},
	Columns: []storage.ColumnSpec{
		{Name: "firstname", Type: "text"},
		{Name: "lastname", Type: "text"},
		{Name: "address", Type: "text"},
		{Name: "city", Type: "text"},
		{Name: "countryid", Type: "integer", References: "country(countryid)"},
	},
}

// ProductCategory holds category name/description pairs.
var ProductCategory = storage.TableSpec{
	Name:       "productcategory",
	PrimaryKey: storage.PrimaryKeySpec{Name: "productcategoryid", Type: "serial"},
	Columns: []storage.ColumnSpec{
		{Name: "productcategory", Type: "text"},
		{Name: "productcategorydescription", Type: "text"},
	},
}

// Product references ProductCategory.
var Product = storage.TableSpec{
	Name:       "product",
	PrimaryKey: storage.PrimaryKeySpec{Name: "productid", Type: "serial"},
	Columns: []storage.ColumnSpec{
		{Name: "productname", Type: "text"},
		{Name: "productunitprice", Type: "real"},
		{Name: "productcategoryid", Type: "integer", References: "productcategory(productcategoryid)"},
	},
}

// OrderDetail is the fact table; one row per (customer, product, date,
// quantity) position in the source line.
var OrderDetail = storage.TableSpec{
	Name:       "orderdetail",
	PrimaryKey: storage.PrimaryKeySpec{Name: "orderdetailid", Type: "serial"},
	Columns: []storage.ColumnSpec{
		{Name: "customerid", Type: "integer", References: "customer(customerid)"},
		{Name: "productid", Type: "integer", References: "product(productid)"},
		{Name: "orderdate", Type: "date"},
		{Name: "quantityordered", Type: "integer"},
	},
}

// All lists every table in dependency order (parents before children).
func All() []storage.TableSpec {
	return []storage.TableSpec{Region, Country, Customer, ProductCategory, Product, OrderDetail}
}
