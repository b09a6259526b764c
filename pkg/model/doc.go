// Package model defines the contract template types shared by the validator,
// the directive processor and the document assembler. A ContractTemplate holds
// the ordered field schema plus the template body (title, sections,
// signatures, footer) that documents are rendered from. Submitted form values
// are carried as Value, a closed union of null, string, number, boolean and
// date, so every consumer switches on Kind instead of type-asserting on any.
package model
