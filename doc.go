/*
Package elementx computes how much of each element to weigh out when
preparing a material sample.

Given a chemical formula with integer or decimal subscripts (Fe2MoGe,
Fe1.5Al0.5), a target element and the mass of that element to use, it
returns the required mass of every constituent, scaled so the target
contributes exactly the requested grams.

# Packages

  - pkg/chem: formula parsing, element aliases, atomic masses and scaling. Pure and
    dependency free.
  - pkg/measurement: XRD peak picking and magnetometry figures from instrument exports.
  - pkg/export: CSV, plain-text and markdown renderings.
  - pkg/auth: accounts and bearer tokens.
  - pkg/adapters: storage (memory, file, redis, sqlite) and surfaces (http, mcp).

# Usage

	lab := elementx.New()

	res, err := lab.Calculate("Fe2MoGe", "germanium", 1.0)
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range res.Components {
		fmt.Printf("%s: %.6f g\n", c.Element, c.Mass)
	}

Lab also keeps a per-user history of saved samples and imported XRD and
magnetometry files; pass WithSampleStore and WithMeasurementStore to persist
them somewhere other than memory.
*/
package elementx
