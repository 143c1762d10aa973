package internalhttp

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>Alarm System</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
        .form-group { margin-bottom: 15px; }
        input, select, button { padding: 8px; margin: 5px 0; width: 100%; }
        button { background-color: #4CAF50; color: white; border: none; cursor: pointer; }
        .alarm-item { padding: 10px; border-bottom: 1px solid #ddd; }
    </style>
</head>
<body>
    <h1>Alarm System</h1>
    <form id='alarmForm'>
        <div class="form-group">
            <input type='text' id='description' placeholder='Event description' required>
        </div>
        <div class="form-group">
            <input type='datetime-local' id='datetime' required>
        </div>
        <div class="form-group">
            <select id='recurrence'>
                <option value='None'>No recurrence</option>
                <option value='Daily'>Daily</option>
                <option value='Weekly'>Weekly</option>
                <option value='Monthly'>Monthly</option>
                <option value='Yearly'>Yearly</option>
            </select>
        </div>
        <button type='submit'>Add Alarm</button>
    </form>
    <h2>Current Alarms</h2>
    <div id='alarms'></div>

    <script>
        document.getElementById('alarmForm').onsubmit = function(e) {
            e.preventDefault();
            fetch('/alarms', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({
                    description: document.getElementById('description').value,
                    datetime: document.getElementById('datetime').value.replace('T', ' '),
                    recurrence: document.getElementById('recurrence').value
                })
            })
            .then(response => {
                if (!response.ok) { throw new Error('Failed to add alarm'); }
                return response.json();
            })
            .then(() => {
                updateAlarms();
                document.getElementById('alarmForm').reset();
            })
            .catch(error => alert(error.message));
        };

        function updateAlarms() {
            fetch('/alarms')
            .then(response => response.json())
            .then(alarms => {
                const alarmsDiv = document.getElementById('alarms');
                alarmsDiv.innerHTML = '';
                alarms.forEach(alarm => {
                    const div = document.createElement('div');
                    div.className = 'alarm-item';
                    div.textContent = alarm.description + ' - ' + alarm.datetime;
                    alarmsDiv.appendChild(div);
                });
            });
        }

        setInterval(updateAlarms, 5000);
        updateAlarms();
    </script>
</body>
</html>
`
