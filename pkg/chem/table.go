package chem

// Element is one row of the periodic table as used by the calculator.
type Element struct {
	Number int     `json:"number"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Mass   float64 `json:"atomic_mass"`
}

// elements is ordered by atomic number. Masses are standard atomic weights
// rounded to the precision the lab has always worked with.
var elements = [...]Element{
	{1, "H", "Hydrogen", 1.008},
	{2, "He", "Helium", 4.003},
	{3, "Li", "Lithium", 6.941},
	{4, "Be", "Beryllium", 9.012},
	{5, "B", "Boron", 10.81},
	{6, "C", "Carbon", 12.01},
	{7, "N", "Nitrogen", 14.01},
	{8, "O", "Oxygen", 16.00},
	{9, "F", "Fluorine", 19.00},
	{10, "Ne", "Neon", 20.18},
	{11, "Na", "Sodium", 22.99},
	{12, "Mg", "Magnesium", 24.31},
	{13, "Al", "Aluminium", 26.98},
	{14, "Si", "Silicon", 28.09},
	{15, "P", "Phosphorus", 30.97},
	{16, "S", "Sulfur", 32.07},
	{17, "Cl", "Chlorine", 35.45},
	{18, "Ar", "Argon", 39.95},
	{19, "K", "Potassium", 39.10},
	{20, "Ca", "Calcium", 40.08},
	{21, "Sc", "Scandium", 44.96},
	{22, "Ti", "Titanium", 47.87},
	{23, "V", "Vanadium", 50.94},
	{24, "Cr", "Chromium", 52.00},
	{25, "Mn", "Manganese", 54.94},
	{26, "Fe", "Iron", 55.845},
	{27, "Co", "Cobalt", 58.933},
	{28, "Ni", "Nickel", 58.693},
	{29, "Cu", "Copper", 63.546},
	{30, "Zn", "Zinc", 65.38},
	{31, "Ga", "Gallium", 69.72},
	{32, "Ge", "Germanium", 72.630},
	{33, "As", "Arsenic", 74.92},
	{34, "Se", "Selenium", 78.96},
	{35, "Br", "Bromine", 79.90},
	{36, "Kr", "Krypton", 83.80},
	{37, "Rb", "Rubidium", 85.47},
	{38, "Sr", "Strontium", 87.62},
	{39, "Y", "Yttrium", 88.91},
	{40, "Zr", "Zirconium", 91.22},
	{41, "Nb", "Niobium", 92.91},
	{42, "Mo", "Molybdenum", 95.95},
	{43, "Tc", "Technetium", 98.00},
	{44, "Ru", "Ruthenium", 101.07},
	{45, "Rh", "Rhodium", 102.91},
	{46, "Pd", "Palladium", 106.42},
	{47, "Ag", "Silver", 107.87},
	{48, "Cd", "Cadmium", 112.41},
	{49, "In", "Indium", 114.82},
	{50, "Sn", "Tin", 118.71},
	{51, "Sb", "Antimony", 121.76},
	{52, "Te", "Tellurium", 127.60},
	{53, "I", "Iodine", 126.90},
	{54, "Xe", "Xenon", 131.29},
	{55, "Cs", "Caesium", 132.91},
	{56, "Ba", "Barium", 137.33},
	{57, "La", "Lanthanum", 138.91},
	{58, "Ce", "Cerium", 140.12},
	{59, "Pr", "Praseodymium", 140.91},
	{60, "Nd", "Neodymium", 144.24},
	{61, "Pm", "Promethium", 145.00},
	{62, "Sm", "Samarium", 150.36},
	{63, "Eu", "Europium", 151.96},
	{64, "Gd", "Gadolinium", 157.25},
	{65, "Tb", "Terbium", 158.93},
	{66, "Dy", "Dysprosium", 162.50},
	{67, "Ho", "Holmium", 164.93},
	{68, "Er", "Erbium", 167.26},
	{69, "Tm", "Thulium", 168.93},
	{70, "Yb", "Ytterbium", 173.05},
	{71, "Lu", "Lutetium", 174.97},
	{72, "Hf", "Hafnium", 178.49},
	{73, "Ta", "Tantalum", 180.95},
	{74, "W", "Tungsten", 183.84},
	{75, "Re", "Rhenium", 186.21},
	{76, "Os", "Osmium", 190.23},
	{77, "Ir", "Iridium", 192.22},
	{78, "Pt", "Platinum", 195.08},
	{79, "Au", "Gold", 196.97},
	{80, "Hg", "Mercury", 200.59},
	{81, "Tl", "Thallium", 204.38},
	{82, "Pb", "Lead", 207.2},
	{83, "Bi", "Bismuth", 208.98},
	{84, "Po", "Polonium", 209.00},
	{85, "At", "Astatine", 210.00},
	{86, "Rn", "Radon", 222.00},
}

// bySymbol is built once at init and never written afterwards.
var bySymbol = func() map[string]int {
	m := make(map[string]int, len(elements))
	for i, e := range elements {
		m[e.Symbol] = i
	}
	return m
}()

// Lookup returns the table entry for an exact, canonical symbol.
func Lookup(symbol string) (Element, bool) {
	i, ok := bySymbol[symbol]
	if !ok {
		return Element{}, false
	}
	return elements[i], true
}

// AtomicMass returns the atomic mass for symbol. Symbols are case-sensitive.
func AtomicMass(symbol string) (float64, bool) {
	e, ok := Lookup(symbol)
	return e.Mass, ok
}

// Elements returns a copy of the table in atomic-number order.
func Elements() []Element {
	out := make([]Element, len(elements))
	copy(out, elements[:])
	return out
}
