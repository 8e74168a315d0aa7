package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/manifest"
)

// scaffold generates a fresh project skeleton in projectDir: Jargo.toml,
// a hello-world source file, a starter test, and a .gitignore.
func scaffold(projectDir, name string, isLib bool) error {
	basePackage := manifest.DeriveBasePackage(name)

	var m *manifest.Manifest
	if isLib {
		m = manifest.NewLib(name, basePackage)
	} else {
		m = manifest.NewApp(name)
	}
	if err := m.Save(filepath.Join(projectDir, manifest.FileName)); err != nil {
		return err
	}

	for _, dir := range []string{"src", "test"} {
		if err := os.Mkdir(filepath.Join(projectDir, dir), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to create %s/", dir)
		}
	}

	files := map[string]string{
		".gitignore": "target/\n",
	}
	if isLib {
		files["src/Lib.java"] = libJava(basePackage, name)
		files["test/LibTest.java"] = libTestJava(basePackage, name)
	} else {
		files["src/Main.java"] = mainJava(basePackage)
		files["test/MainTest.java"] = mainTestJava(basePackage)
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(projectDir, rel), []byte(content), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", rel)
		}
	}
	return nil
}

// gitInit initializes a git repository in dir, best-effort: a missing git
// binary or an existing repository is not an error.
func gitInit(dir string) {
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	cmd.Stdout = nil
	cmd.Stderr = nil
	_ = cmd.Run()
}

func mainJava(basePackage string) string {
	return fmt.Sprintf(`package %s;

public class Main {
    public static void main(String[] args) {
        System.out.println("Hello, World!");
    }
}
`, basePackage)
}

func mainTestJava(basePackage string) string {
	return fmt.Sprintf(`package %s;

import org.junit.jupiter.api.Test;
import static org.junit.jupiter.api.Assertions.*;

class MainTest {
    @Test
    void testMain() {
        assertTrue(true);
    }
}
`, basePackage)
}

func libJava(basePackage, name string) string {
	return fmt.Sprintf(`package %s;

public class Lib {
    public static String greeting() {
        return "Hello from %s!";
    }
}
`, basePackage, name)
}

func libTestJava(basePackage, name string) string {
	return fmt.Sprintf(`package %s;

import org.junit.jupiter.api.Test;
import static org.junit.jupiter.api.Assertions.*;

class LibTest {
    @Test
    void testGreeting() {
        assertEquals("Hello from %s!", Lib.greeting());
    }
}
`, basePackage, name)
}
