// Package pages compiles declarative page definitions into the normalizers
// and funnel stages the engine runs.
//
// A dashboard page used to be a hand written module. Here it is a YAML
// record: column map, stage-flag fields, categorical fields, ordered stages
// and the group keys it allows. Compile turns that record into a Page once;
// Page.Normalize then cleans raw rows and reports data quality, and
// Page.Stages feeds funnel.Aggregate.
//
// Stage predicates:
//
//	field only            field == "Si"
//	field + label (flag)  field == Normalize(label)
//	field + label (other) field equals label, ignoring case and outer spaces
//	all_of                additionally every listed flag field == "Si"
package pages
