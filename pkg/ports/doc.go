/*
Package ports defines the driven ports (interfaces) of ElementX.

These interfaces decouple the lab services from storage, so the same Lab can
run over memory, JSON files, Redis or SQLite.

# Key Interfaces

  - SampleStore: saved stoichiometric calculations.
  - UserStore: accounts used by the auth service.
  - MeasurementStore: imported XRD and magnetometry files.

RunSampleStoreContract, RunUserStoreContract and RunMeasurementStoreContract
are shared test suites every adapter runs against itself.
*/
package ports
