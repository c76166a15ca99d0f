// Package manifest reads and writes package.xml style manifests.
//
// # Format
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<Package xmlns="http://soap.sforce.com/2006/04/metadata">
//	    <types>
//	        <members>MyClass</members>
//	        <name>ApexClass</name>
//	    </types>
//	    <version>60.0</version>
//	</Package>
//
// The same layout is used for destructiveChangesPre.xml and
// destructiveChangesPost.xml.
//
// # Errors
//
// Syntax errors are returned as *ManifestError carrying the file path and
// line number, with a hint describing the expected structure.
package manifest
