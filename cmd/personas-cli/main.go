// personas-cli runs the persona import and export against the configured
// store without going through HTTP.
//
//	personas-cli import --file personas.csv --config config/local.yaml
//	personas-cli export --out usuarios.xlsx --format xlsx
package main

func main() {
	Execute()
}
