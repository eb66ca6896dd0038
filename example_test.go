package elementx_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/elementx"
)

func ExampleLab_Calculate() {
	lab := elementx.New()

	// Subscripts may be decimal; the target may be a name or symbol in any case.
	res, err := lab.Calculate("Fe2MoGe", "germanium", 1.0)
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range res.Components {
		fmt.Printf("%s: %.6f g\n", c.Element, c.Mass)
	}
	fmt.Printf("Total: %.6f g\n", res.Total)
	// Output:
	// Fe: 1.537794 g
	// Mo: 1.321079 g
	// Ge: 1.000000 g
	// Total: 3.858874 g
}

func ExampleLab_SaveSample() {
	ctx := context.Background()
	lab := elementx.New()

	res, err := lab.Calculate("Bi2Te3", "Te", 5)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := lab.SaveSample(ctx, "user-1", "", res); err != nil {
		log.Fatal(err)
	}

	samples, _ := lab.ListSamples(ctx, "user-1")
	fmt.Println(len(samples), samples[0].DisplayName())
	// Output:
	// 1 Bi2Te3
}
