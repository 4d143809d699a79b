package directory

type Doctor struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Patient struct {
	ID       string `yaml:"id"`
	FullName string `yaml:"full_name"`
}

type Medication struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Seed es el contenido del archivo de carga inicial del directorio.
type Seed struct {
	Doctors     []Doctor     `yaml:"doctors"`
	Patients    []Patient    `yaml:"patients"`
	Medications []Medication `yaml:"medications"`
}
