/*
Package chem is the stoichiometry engine behind ElementX.

It turns a chemical formula into an element-to-count composition and scales
that composition so that one chosen element contributes a given mass in grams.
Everything here is pure: the element table is built once at init and never
written, and no function keeps state between calls.

# Pipeline

  - Normalize: free-text target ("indium", "IN", "fe") to a candidate symbol.
  - Lookup / AtomicMass: the element table, H through Rn.
  - Parse: formula string to Composition. Counts may be decimal ("Mn1.5In.5Sb").
  - Scale: Composition, target symbol and mass to Result.

Calculator strings these together and stamps the result with a timestamp.

	calc := chem.NewCalculator()
	res, err := calc.Calculate("Fe2MoGe", "ge", 1.0)
	if errors.Is(err, chem.ErrTargetNotInFormula) {
		// ...
	}

Rounding is left to the caller; see package export.
*/
package chem
