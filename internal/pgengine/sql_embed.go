package pgengine

import (
	//use blank embed import
	_ "embed"
)

//go:embed sql/ddl.sql
var sqlDDL string
