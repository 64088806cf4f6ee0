// Package common holds the small vocabulary shared by every layer of the
// resolution engine: match scores, condition priorities and operators,
// identifier validation and detail-tagged errors.
//
// Example:
//
//	if err := common.ValidateIdentifier("language"); err != nil {
//	    log.Fatal(err)
//	}
//	score := common.PerfectMatch
package common
