/*
Package domain contains the records ElementX keeps about its users and their work.

It is kept free of I/O so that every storage adapter (memory, file, redis,
sqlite) persists the same shapes.

# Key Entities

  - User: an account; the password is only ever held as a bcrypt hash.
  - Sample: a saved stoichiometric calculation (chem.Result) with a display name.
  - Measurement: an imported XRD scan or magnetometry curve with its derived
    peaks or magnetic properties.
*/
package domain
