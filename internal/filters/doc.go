// Package filters narrows a set of normalized funnel records before they are
// aggregated: a date range on the page's date field, equality sets on the
// categorical fields and a free-text query over name and company.
//
// Filters are values passed with every request; nothing is kept between
// calls. Apply never modifies its input.
package filters
